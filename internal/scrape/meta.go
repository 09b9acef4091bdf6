package scrape

// Meta describes how a single-target result was produced.
type Meta struct {
	Endpoint      string `json:"endpoint"`
	Cursor        string `json:"cursor,omitempty"`
	Fetched       int    `json:"fetched"`
	Kept          int    `json:"kept"`
	Requests      int    `json:"requests"`
	Requested     int    `json:"requested"`
	Method        Method `json:"method"`
	Target        string `json:"target"`
	EffectiveFeed string `json:"effective_feed"`
	FallbackUsed  bool   `json:"fallback_used"`
}

// Result is the output of a single-target run.
type Result struct {
	Rows    []Row    `json:"rows"`
	Meta    Meta     `json:"meta"`
	Profile *Profile `json:"profile,omitempty"`
}

// BatchMeta sums the metas of every successful target in a batch.
type BatchMeta struct {
	Method       Method   `json:"method"`
	Feed         Feed     `json:"feed"`
	Targets      []string `json:"targets"`
	Requested    int      `json:"requested"`
	Fetched      int      `json:"total_fetched"`
	Kept         int      `json:"total_kept"`
	Requests     int      `json:"total_requests"`
	Endpoint     string   `json:"endpoint"`
	FallbackUsed bool     `json:"fallback_used"`
}

// BatchResult is the output of a batch run. Failed targets appear only in
// Warnings.
type BatchResult struct {
	Rows     []Row     `json:"rows"`
	Meta     BatchMeta `json:"meta"`
	Warnings []string  `json:"warnings"`
}

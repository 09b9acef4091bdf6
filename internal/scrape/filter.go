package scrape

// Thresholds are the admission rules applied to every raw record.
type Thresholds struct {
	MinPlays       int64
	MinLikes       int64
	MinComments    int64
	IncludeUndated bool
}

// Passes reports whether item survives the recency and engagement rules.
// An item without a creation time passes the recency rule only when
// IncludeUndated is set; one with a creation time must not be older than
// cutoff.
func Passes(item RawItem, schema Schema, cutoff int64, th Thresholds) bool {
	ts, dated := schema.timestamp(item)
	if !dated && !th.IncludeUndated {
		return false
	}
	if dated && ts < cutoff {
		return false
	}
	return schema.plays(item) >= th.MinPlays &&
		schema.likes(item) >= th.MinLikes &&
		schema.comments(item) >= th.MinComments
}

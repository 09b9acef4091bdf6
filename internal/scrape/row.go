package scrape

import "time"

// DateUnknown is shown for rows without a creation time.
const DateUnknown = "Unknown"

const dateLayout = "2006-01-02"

// Row is a normalized output record.
type Row struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Username        string `json:"username"`
	TakenAt         int64  `json:"date_ts"`
	Date            string `json:"date"`
	Plays           int64  `json:"plays"`
	Likes           int64  `json:"likes"`
	Comments        int64  `json:"comments"`
	Engagement      int64  `json:"engagement"`
	MetricsDisabled bool   `json:"metrics_disabled"`
	Source          string `json:"source"`
	Discovery       string `json:"discovery"`

	// Author details, filled when the provider embeds them in the record.
	AuthorFollowers int64  `json:"author_followers,omitempty"`
	AuthorURL       string `json:"author_url,omitempty"`
	Region          string `json:"region,omitempty"`

	// Target is set only on rows produced by a batch run.
	Target string `json:"target,omitempty"`
}

// WithTarget returns a copy of r tagged with the batch target label.
func (r Row) WithTarget(label string) Row {
	r.Target = label
	return r
}

// Normalize turns a raw record into a Row. It reports false when the record
// has no identifier.
func Normalize(item RawItem, schema Schema, source, discovery string) (Row, bool) {
	id, ok := schema.id(item)
	if !ok {
		return Row{}, false
	}
	author := schema.author(item)
	ts, _ := schema.timestamp(item)
	plays, likes, comments := schema.plays(item), schema.likes(item), schema.comments(item)

	row := Row{
		ID:              id,
		Username:        author,
		TakenAt:         ts,
		Date:            FormatDate(ts),
		Plays:           plays,
		Likes:           likes,
		Comments:        comments,
		Engagement:      plays + likes + comments,
		MetricsDisabled: schema.metricsHidden(item),
		Source:          source,
		Discovery:       discovery,
		AuthorFollowers: schema.authorFollowers(item),
		Region:          schema.region(item),
	}
	if schema.Permalink != nil {
		row.URL = schema.Permalink(id, author)
	}
	if schema.ProfileLink != nil && author != unknownAuthor {
		row.AuthorURL = schema.ProfileLink(author)
	}
	return row, true
}

// FormatDate renders a unix timestamp as a UTC calendar date, or
// DateUnknown when ts is not positive.
func FormatDate(ts int64) string {
	if ts <= 0 {
		return DateUnknown
	}
	return time.Unix(ts, 0).UTC().Format(dateLayout)
}

// Package export writes scrape rows to files: CSV, JSON records and an HTML
// engagement chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatChart Format = "html"
)

// ParseFormat maps a file format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatChart:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (must be csv, json, or html)", s)
	}
}

// Columns is the CSV header, in column order.
var Columns = []string{
	"target", "date", "username", "plays", "likes", "comments", "engagement",
	"metrics_disabled", "source", "url", "id", "date_ts", "discovery",
	"author_followers", "author_url", "region",
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []scrape.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Target,
			r.Date,
			r.Username,
			strconv.FormatInt(r.Plays, 10),
			strconv.FormatInt(r.Likes, 10),
			strconv.FormatInt(r.Comments, 10),
			strconv.FormatInt(r.Engagement, 10),
			strconv.FormatBool(r.MetricsDisabled),
			r.Source,
			r.URL,
			r.ID,
			strconv.FormatInt(r.TakenAt, 10),
			r.Discovery,
			strconv.FormatInt(r.AuthorFollowers, 10),
			r.AuthorURL,
			r.Region,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format Format, title string, rows []scrape.Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		if rows == nil {
			rows = []scrape.Row{}
		}
		return WriteJSON(w, rows)
	case FormatChart:
		return WriteChart(w, title, rows)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeFilename replaces every character outside [a-zA-Z0-9_-] with an
// underscore and trims underscores. An empty result becomes "export".
func SanitizeFilename(value string) string {
	safe := strings.Trim(unsafeChars.ReplaceAllString(value, "_"), "_")
	if safe == "" {
		return "export"
	}
	return safe
}

// DefaultFilename returns "<provider>_<targets>.<ext>".
func DefaultFilename(provider string, targets []string, format Format) string {
	return provider + "_" + SanitizeFilename(strings.Join(targets, "_")) + "." + string(format)
}

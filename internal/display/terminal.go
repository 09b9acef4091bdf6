// Package display provides terminal output formatting for reelscout.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

const separator = " • "

// TerminalFormatter renders scrape results for terminal display.
type TerminalFormatter struct {
	out       io.Writer
	useColors bool
	now       func() time.Time
}

// NewTerminalFormatter creates a formatter writing to w.
func NewTerminalFormatter(w io.Writer, useColors bool) *TerminalFormatter {
	return &TerminalFormatter{out: w, useColors: useColors, now: time.Now}
}

// RenderRows writes rows as a table. A TARGET column is added when any row
// came from a batch.
func (f *TerminalFormatter) RenderRows(rows []scrape.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(f.out, "No reels matched the filters.")
		return
	}

	batch := false
	for _, r := range rows {
		if r.Target != "" {
			batch = true
			break
		}
	}

	header := []string{"date", "posted", "user", "plays", "likes", "comments", "engagement", "source", "url"}
	if batch {
		header = append([]string{"target"}, header...)
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{
			r.Date,
			f.FormatTimestamp(r.TakenAt),
			"@" + f.TruncateText(r.Username, 24),
			f.formatCounter(r.Plays, r.MetricsDisabled),
			f.formatCounter(r.Likes, r.MetricsDisabled),
			strconv.FormatInt(r.Comments, 10),
			strconv.FormatInt(r.Engagement, 10),
			r.Source,
			r.URL,
		}
		if batch {
			line = append([]string{r.Target}, line...)
		}
		data = append(data, line)
	}

	table := newTable(f.out)
	table.Header(header)
	_ = table.Bulk(data)
	_ = table.Render()
}

// formatCounter marks counters the author chose to hide.
func (f *TerminalFormatter) formatCounter(n int64, hidden bool) string {
	if hidden && n == 0 {
		return "hidden"
	}
	return strconv.FormatInt(n, 10)
}

// RenderMeta writes a one-line summary of a single-target run.
func (f *TerminalFormatter) RenderMeta(meta scrape.Meta) {
	parts := []string{
		fmt.Sprintf("kept %d of %d fetched", meta.Kept, meta.Fetched),
		pluralizeCount(meta.Requests, "request"),
		"feed " + meta.EffectiveFeed,
		"endpoint " + meta.Endpoint,
	}
	f.info(strings.Join(parts, separator))
	if meta.FallbackUsed {
		f.warn("top feed ran short, filled from recent")
	}
	if meta.Cursor != "" {
		f.dim("more results available (cursor " + meta.Cursor + ")")
	}
}

// RenderBatchMeta writes the batch totals.
func (f *TerminalFormatter) RenderBatchMeta(meta scrape.BatchMeta) {
	parts := []string{
		pluralizeCount(len(meta.Targets), "target"),
		fmt.Sprintf("kept %d of %d fetched", meta.Kept, meta.Fetched),
		pluralizeCount(meta.Requests, "request"),
	}
	if meta.Endpoint != "" {
		parts = append(parts, "endpoints "+meta.Endpoint)
	}
	f.info(strings.Join(parts, separator))
	if meta.FallbackUsed {
		f.warn("at least one target fell back to the recent feed")
	}
}

// RenderWarnings writes one line per failed batch target.
func (f *TerminalFormatter) RenderWarnings(warnings []string) {
	for _, w := range warnings {
		f.warn(w)
	}
}

// RenderProfile writes a profile header, optionally followed by its samples.
func (f *TerminalFormatter) RenderProfile(p scrape.Profile) {
	name := "@" + p.Username
	if p.FullName != "" {
		name += " (" + p.FullName + ")"
	}
	if p.Verified {
		name += " ✓"
	}
	f.header(name)

	fmt.Fprintf(f.out, "  %d followers%s%d following%s%d posts\n",
		p.Followers, separator, p.Following, separator, p.Posts)
	if p.Private {
		fmt.Fprintln(f.out, "  private account")
	}
	if p.Biography != "" {
		fmt.Fprintln(f.out, "  "+f.TruncateText(strings.ReplaceAll(p.Biography, "\n", " "), 120))
	}
	if p.URL != "" {
		fmt.Fprintln(f.out, "  "+p.URL)
	}
}

// RenderProfileSummary writes the profile and both sample tables.
func (f *TerminalFormatter) RenderProfileSummary(s scrape.ProfileSummary) {
	f.RenderProfile(s.Profile)

	f.header(fmt.Sprintf("Posts (%d on first page)", s.PostsCount))
	f.RenderRows(s.SamplePosts)

	f.header(fmt.Sprintf("Reels (%d on first page)", s.ReelsCount))
	f.RenderRows(s.SampleReels)
}

// FormatTimestamp formats a unix timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(ts int64) string {
	if ts <= 0 {
		return scrape.DateUnknown
	}
	t := time.Unix(ts, 0)
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.UTC().Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func pluralizeCount(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string([]rune(text)[:maxLen-3]) + "..."
}

func (f *TerminalFormatter) info(msg string) {
	if f.useColors {
		color.New(color.FgCyan).Fprintln(f.out, msg)
		return
	}
	fmt.Fprintln(f.out, msg)
}

func (f *TerminalFormatter) warn(msg string) {
	if f.useColors {
		color.New(color.FgYellow).Fprintln(f.out, "⚠ "+msg)
		return
	}
	fmt.Fprintln(f.out, "[WARN] "+msg)
}

func (f *TerminalFormatter) dim(msg string) {
	if f.useColors {
		color.New(color.Faint).Fprintln(f.out, msg)
		return
	}
	fmt.Fprintln(f.out, msg)
}

func (f *TerminalFormatter) header(title string) {
	if f.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(f.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(f.out, "\n%s\n%s\n", title, strings.Repeat("-", utf8.RuneCountInString(title)))
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

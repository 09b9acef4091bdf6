package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// maxBars caps the engagement chart; rows are expected pre-sorted.
const maxBars = 50

// WriteChart renders an HTML page with an engagement bar chart per row and
// a pie of engagement share per source.
func WriteChart(w io.Writer, title string, rows []scrape.Row) error {
	shown := rows
	if len(shown) > maxBars {
		shown = shown[:maxBars]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d reels", len(rows))}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(shown))
	plays := make([]opts.BarData, 0, len(shown))
	likes := make([]opts.BarData, 0, len(shown))
	comments := make([]opts.BarData, 0, len(shown))
	for _, r := range shown {
		labels = append(labels, "@"+r.Username+" "+r.ID)
		plays = append(plays, opts.BarData{Value: r.Plays})
		likes = append(likes, opts.BarData{Value: r.Likes})
		comments = append(comments, opts.BarData{Value: r.Comments})
	}
	bar.SetXAxis(labels).
		AddSeries("Plays", plays).
		AddSeries("Likes", likes).
		AddSeries("Comments", comments).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "engagement"}))

	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Engagement by source"}))

	var order []string
	bySource := make(map[string]int64)
	for _, r := range rows {
		key := r.Source
		if r.Target != "" {
			key = r.Target
		}
		if _, seen := bySource[key]; !seen {
			order = append(order, key)
		}
		bySource[key] += r.Engagement
	}
	shares := make([]opts.PieData, 0, len(order))
	for _, k := range order {
		shares = append(shares, opts.PieData{Name: k, Value: bySource[k]})
	}
	pie.AddSeries("Engagement", shares)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	if err := pie.Render(w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

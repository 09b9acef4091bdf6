package scrape

import (
	"context"
	"log/slog"
)

// Paginator walks one stream page by page, filtering and normalizing as it
// goes.
type Paginator struct {
	Schema   Schema
	Cutoff   int64
	Logger   *slog.Logger
	Observer Observer
}

// Run fetches pages from src until req.MaxItems rows are kept,
// req.MaxRequests pages were fetched, or the stream is exhausted. Every
// received item counts toward Meta.Fetched, including those after the quota
// was reached. Provider errors abort the run without partial rows.
func (p *Paginator) Run(ctx context.Context, req Request, src *Source) ([]Row, Meta, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := p.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	th := req.Thresholds()
	discovery := req.Discovery()

	rows := make([]Row, 0, min(req.MaxItems, 64))
	var meta Meta
	cursor := ""

	for len(rows) < req.MaxItems && meta.Requests < req.MaxRequests {
		page, endpoint, err := src.Adapter.Fetch(ctx, cursor)
		if err != nil {
			return nil, meta, err
		}
		meta.Requests++
		meta.Endpoint = endpoint
		meta.Fetched += len(page.Items)

		kept := 0
		for _, item := range page.Items {
			if len(rows) >= req.MaxItems {
				break
			}
			if !Passes(item, p.Schema, p.Cutoff, th) {
				continue
			}
			row, ok := Normalize(item, p.Schema, src.Label, discovery)
			if !ok {
				continue
			}
			rows = append(rows, row)
			kept++
		}

		obs.PageFetched(endpoint, len(page.Items), kept)
		logger.Debug("page fetched",
			"endpoint", endpoint,
			"request", meta.Requests,
			"items", len(page.Items),
			"kept", kept,
			"total_kept", len(rows),
			"has_cursor", page.Cursor != "")

		cursor = page.Cursor
		if cursor == "" || len(page.Items) == 0 {
			break
		}
	}

	meta.Cursor = cursor
	meta.Kept = len(rows)
	return rows, meta, nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/reelscout/internal/export"
	"github.com/gauthierbraillon/reelscout/internal/providers"
	"github.com/gauthierbraillon/reelscout/internal/scrape"
	"github.com/gauthierbraillon/reelscout/pkg/browser"
)

// requestFlags are the scrape options shared by scrape and batch. Only flags
// the user sets override the configured defaults.
type requestFlags struct {
	provider       string
	method         string
	feed           string
	maxItems       int
	maxRequests    int
	maxAgeDays     int
	minPlays       int64
	minLikes       int64
	minComments    int64
	includeUndated bool
	debug          bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.provider, "provider", "p", "", "content provider: instagram or tiktok (default from config)")
	fl.StringVarP(&f.method, "method", "m", "hashtag", "discovery method: hashtag or username")
	fl.StringVarP(&f.feed, "feed", "f", "", "feed: top, recent, clips, posts or auto (default auto for hashtags, posts for usernames)")
	fl.IntVarP(&f.maxItems, "max-items", "n", 0, "maximum rows per target (default from config)")
	fl.IntVar(&f.maxRequests, "max-requests", 0, "maximum API requests per target (default from config)")
	fl.IntVar(&f.maxAgeDays, "max-age-days", 0, "ignore items older than this many days (default from config)")
	fl.Int64Var(&f.minPlays, "min-plays", 0, "minimum play count")
	fl.Int64Var(&f.minLikes, "min-likes", 0, "minimum like count")
	fl.Int64Var(&f.minComments, "min-comments", 0, "minimum comment count")
	fl.BoolVar(&f.includeUndated, "include-undated", true, "keep items without a creation time")
	fl.BoolVar(&f.debug, "debug", false, "print a stack trace when a target fails")
}

// build merges the flags over base.
func (f *requestFlags) build(cmd *cobra.Command, base scrape.Request, provider string) (scrape.Request, error) {
	fl := cmd.Flags()
	req := base

	method, err := scrape.ParseMethod(f.method)
	if err != nil {
		return req, err
	}
	req.Method = method

	req.Feed = providers.DefaultFeed(provider, method)
	if fl.Changed("feed") {
		if req.Feed, err = scrape.ParseFeed(f.feed); err != nil {
			return req, err
		}
	}
	if fl.Changed("max-items") {
		req.MaxItems = f.maxItems
	}
	if fl.Changed("max-requests") {
		req.MaxRequests = f.maxRequests
	}
	if fl.Changed("max-age-days") {
		req.MaxAgeDays = f.maxAgeDays
	}
	if fl.Changed("include-undated") {
		req.IncludeUndated = f.includeUndated
	}
	req.MinPlays = f.minPlays
	req.MinLikes = f.minLikes
	req.MinComments = f.minComments
	req.Debug = f.debug
	return req, nil
}

// outputFlags control how rows are presented and exported.
type outputFlags struct {
	sort   string
	format string
	export string
	out    string
	open   bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&o.sort, "sort", "engagement", "sort rows by engagement, plays, likes, comments, date or none")
	fl.StringVarP(&o.format, "format", "o", "table", "stdout format: table, json or csv")
	fl.StringVar(&o.export, "export", "", "also write rows to a file: csv, json or html (engagement chart)")
	fl.StringVar(&o.out, "out", "", "export file path (default <provider>_<targets>.<ext>)")
	fl.BoolVar(&o.open, "open", false, "open the exported html chart in the browser")
}

func (o *outputFlags) sortKey() (scrape.SortKey, error) {
	return scrape.ParseSortKey(o.sort)
}

// writeExport writes rows to the export file, if one was requested.
func (o *outputFlags) writeExport(cmd *cobra.Command, provider string, targets []string, rows []scrape.Row) error {
	if o.export == "" {
		return nil
	}
	format, err := export.ParseFormat(o.export)
	if err != nil {
		return err
	}

	path := o.out
	if path == "" {
		path = export.DefaultFilename(provider, targets, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	title := provider + " " + strings.Join(targets, ", ")
	if err := export.Write(f, format, title, rows); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rows to %s\n", len(rows), path)

	if o.open && format == export.FormatChart {
		if err := browser.OpenFile(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser. Please open:\n%s\n", path)
		}
	}
	return nil
}

func validateFormat(format string) error {
	switch format {
	case "table", "json", "csv":
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be table, json or csv", format)
	}
}

// newScrapeCmd creates the scrape subcommand.
func newScrapeCmd(a *app) *cobra.Command {
	var rf requestFlags
	var of outputFlags

	cmd := &cobra.Command{
		Use:   "scrape <target>",
		Short: "Scrape one hashtag or username",
		Long: "Scrape one hashtag or username and print the reels that pass the filters.\n" +
			"A leading # or @ on the target is ignored.",
		Example: "  reelscout scrape dogs --min-likes 500 --max-age-days 30\n" +
			"  reelscout scrape @nasa --method username --feed clips --format json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(of.format); err != nil {
				return err
			}
			sortKey, err := of.sortKey()
			if err != nil {
				return err
			}

			backend, err := a.registry.Get(rf.provider)
			if err != nil {
				return err
			}
			req, err := rf.build(cmd, a.baseRequest(), backend.Provider())
			if err != nil {
				return err
			}
			req = req.WithTarget(scrape.NormalizeTarget(args[0]))

			res, err := backend.RunSingleTarget(cmd.Context(), req)
			if err != nil {
				return reportFailure(cmd.ErrOrStderr(), err)
			}
			rows := scrape.SortRows(res.Rows, sortKey)

			out := cmd.OutOrStdout()
			switch of.format {
			case "json":
				sorted := *res
				sorted.Rows = rows
				if err := export.WriteJSON(out, sorted); err != nil {
					return err
				}
			case "csv":
				if err := export.WriteCSV(out, rows); err != nil {
					return err
				}
			default:
				f := a.formatter(out)
				if res.Profile != nil {
					f.RenderProfile(*res.Profile)
					fmt.Fprintln(out)
				}
				f.RenderRows(rows)
				f.RenderMeta(res.Meta)
			}

			return of.writeExport(cmd, backend.Provider(), []string{req.Target}, rows)
		},
	}

	rf.register(cmd)
	of.register(cmd)

	return cmd
}

// newBatchCmd creates the batch subcommand.
func newBatchCmd(a *app) *cobra.Command {
	var rf requestFlags
	var of outputFlags

	cmd := &cobra.Command{
		Use:   "batch <targets>",
		Short: "Scrape a comma-separated list of targets",
		Long: "Scrape every target in a comma-separated list with the same options.\n" +
			"Invalid targets are reported and skipped; a failing target never stops the batch.",
		Example: "  reelscout batch \"#dogs, #cats, puppies\" --feed top --max-items 20",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(of.format); err != nil {
				return err
			}
			sortKey, err := of.sortKey()
			if err != nil {
				return err
			}

			backend, err := a.registry.Get(rf.provider)
			if err != nil {
				return err
			}
			base, err := rf.build(cmd, a.baseRequest(), backend.Provider())
			if err != nil {
				return err
			}

			targets, invalid := scrape.ParseTargets(base.Method, strings.Join(args, ","))
			f := a.formatter(cmd.ErrOrStderr())
			for _, bad := range invalid {
				f.RenderWarnings([]string{fmt.Sprintf("skipping invalid %s %q", base.Method, bad)})
			}
			if len(targets) == 0 {
				return fmt.Errorf("no valid targets in %q", strings.Join(args, ","))
			}

			res := backend.RunBatch(cmd.Context(), base, targets)
			rows := scrape.SortRows(res.Rows, sortKey)

			out := cmd.OutOrStdout()
			switch of.format {
			case "json":
				sorted := *res
				sorted.Rows = rows
				if err := export.WriteJSON(out, sorted); err != nil {
					return err
				}
			case "csv":
				if err := export.WriteCSV(out, rows); err != nil {
					return err
				}
			default:
				tf := a.formatter(out)
				tf.RenderRows(rows)
				tf.RenderBatchMeta(res.Meta)
			}
			f.RenderWarnings(res.Warnings)

			return of.writeExport(cmd, backend.Provider(), targets, rows)
		},
	}

	rf.register(cmd)
	of.register(cmd)

	return cmd
}

// newProfileCmd creates the profile subcommand.
func newProfileCmd(a *app) *cobra.Command {
	var provider, format string
	var debug bool

	cmd := &cobra.Command{
		Use:   "profile <username>",
		Short: "Inspect an account and sample its posts and reels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format %q: must be table or json", format)
			}
			backend, err := a.registry.Get(provider)
			if err != nil {
				return err
			}

			summary, err := backend.FetchFullProfile(cmd.Context(), scrape.NormalizeTarget(args[0]), debug)
			if err != nil {
				return reportFailure(cmd.ErrOrStderr(), err)
			}

			if format == "json" {
				return export.WriteJSON(cmd.OutOrStdout(), summary)
			}
			a.formatter(cmd.OutOrStdout()).RenderProfileSummary(*summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "content provider (default from config)")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table or json")
	cmd.Flags().BoolVar(&debug, "debug", false, "print a stack trace on failure")

	return cmd
}

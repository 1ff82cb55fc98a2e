package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/clock"
	"agendacal/internal/datekey"
	"agendacal/internal/ics"
	"agendacal/internal/model"
	"agendacal/internal/query"
	"agendacal/internal/store"
	"agendacal/internal/view"
)

// cliUser owns every record loaded by the CLI.
const cliUser = "cli"

type rootOptions struct {
	files     []string
	icsFiles  []string
	timezone  string
	weekStart string
}

func (o *rootOptions) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", o.timezone, err)
	}
	return loc, nil
}

// load reads every --file and --ics input into a fresh store. ICS feeds are
// expanded over window.
func (o *rootOptions) load(window datekey.Range, loc *time.Location, now time.Time) (*store.Memory, error) {
	if len(o.files) == 0 && len(o.icsFiles) == 0 {
		return nil, errors.New("no input: pass --file or --ics")
	}
	mem := store.NewMemory()
	for _, path := range o.files {
		recs, err := store.ReadRecords(path)
		if err != nil {
			return nil, err
		}
		mem.Replace(cliUser, path, recs)
	}
	for _, path := range o.icsFiles {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		recs, err := ics.FeedRecords(ics.Source{ID: path, URL: "file://" + path}, body, window, loc, model.KindTask, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		mem.Replace(cliUser, path, recs)
	}
	return mem, nil
}

func newRootCmd(clk clock.Clock) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "agendactl",
		Short:         "Run agenda list and view queries over local record or ICS files",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVarP(&opts.files, "file", "f", nil, "JSON file with an array of schedule records")
	pf.StringSliceVar(&opts.icsFiles, "ics", nil, "ICS file to expand into records")
	pf.StringVar(&opts.timezone, "timezone", "UTC", "IANA timezone for today and ICS conversion")
	pf.StringVar(&opts.weekStart, "week-start", "monday", "first day of the week (monday, sunday)")

	rootCmd.AddCommand(listCmd(opts, clk))
	rootCmd.AddCommand(viewCmd(opts, clk))
	return rootCmd
}

func listCmd(opts *rootOptions, clk clock.Clock) *cobra.Command {
	var p query.Params
	var mode string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a page of merged, filled records",
		Long: `Print a page of merged records. With both --start and --end every day
in the range is present, empty days as placeholders.

Examples:
  agendactl list --file records.json --start 2024-06-01 --end 2024-06-30
  agendactl list --ics work.ics --q standup --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := opts.location()
			if err != nil {
				return err
			}
			now := clk.Now()
			mem, err := opts.load(listWindow(p, datekey.Today(now, loc)), loc, now)
			if err != nil {
				return err
			}

			p.UserID = cliUser
			p.Mode = query.Mode(mode)
			page, err := query.NewHandler(mem, 0).List(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.StartDate, "start", "", "first day (YYYY-MM-DD)")
	f.StringVar(&p.EndDate, "end", "", "last day (YYYY-MM-DD)")
	f.StringVarP(&p.Query, "q", "q", "", "case-insensitive text filter on titles")
	f.StringVar(&mode, "mode", string(query.ModeAll), "all or unfinished")
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVarP(&p.Limit, "limit", "n", 0, "records per page (default 200)")
	return cmd
}

// listWindow is the expansion window for ICS input: the requested dates,
// with an open side defaulting to a month before or three after today.
func listWindow(p query.Params, today datekey.Key) datekey.Range {
	w := datekey.Range{Start: today.AddDays(-31), End: today.AddDays(90)}
	if k, err := datekey.Parse(p.StartDate); err == nil {
		w.Start = k
	}
	if k, err := datekey.Parse(p.EndDate); err == nil {
		w.End = k
	}
	if w.End.Before(w.Start) {
		w.End = w.Start
	}
	return w
}

func viewCmd(opts *rootOptions, clk clock.Clock) *cobra.Command {
	var rawMode, rawDate string
	var maxMonthItems int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the day, week or month view around a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := opts.location()
			if err != nil {
				return err
			}
			mode, err := datekey.ParseMode(rawMode)
			if err != nil {
				return err
			}
			now := clk.Now()
			anchor := datekey.Today(now, loc)
			if rawDate != "" {
				if anchor, err = datekey.Parse(rawDate); err != nil {
					return err
				}
			}

			builder := view.NewBuilder(clk, view.Options{
				Location:      loc,
				WeekStart:     datekey.ParseWeekStart(opts.weekStart),
				MaxMonthItems: maxMonthItems,
			})
			rng := builder.Range(mode, anchor)
			mem, err := opts.load(rng, loc, now)
			if err != nil {
				return err
			}
			recs, err := query.NewHandler(mem, 0).Window(cmd.Context(), cliUser, rng)
			if err != nil {
				return err
			}
			v, err := builder.Build(mode, anchor, recs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rawMode, "mode", "m", string(datekey.ModeWeek), "day, week or month")
	f.StringVarP(&rawDate, "date", "d", "", "anchor day (YYYY-MM-DD), default today")
	f.IntVar(&maxMonthItems, "max-month-items", view.DefaultMaxMonthItems, "items shown per month cell")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/bootstrap"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

const quotePreviewWidth = 60

// session is an opened library plus the logger commands report through.
type session struct {
	*bootstrap.Library

	logger *slog.Logger
}

type action func(c *cli.Context, s *session) error

// withLibrary opens the configured library around a command. Commands never
// seed implicitly and never reach the catalog.
func withLibrary(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return cli.Exit(err.Error(), ExitUsageError)
		}

		logger := logging.NewWithWriter(&logging.Config{
			Level:   "warn",
			Format:  "text",
			Service: "biblioctl",
			Version: Version,
		}, c.App.ErrWriter)

		lib, err := bootstrap.Open(c.Context, cfg, logger, bootstrap.Options{})
		if err != nil {
			return cli.Exit(err.Error(), ExitDataError)
		}

		defer func() {
			if closeErr := lib.Close(); closeErr != nil {
				logger.Warn("closing library", slog.Any("error", closeErr))
			}
		}()

		return fn(c, &session{Library: lib, logger: logger})
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("profile"))
	if err != nil {
		return nil, err
	}

	if driver := c.String("driver"); driver != "" {
		cfg.Storage.Driver = driver
	}

	if dsn := c.String("dsn"); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	cfg.Storage.Seed = false
	cfg.Cache.Driver = "none"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func quoteFilter(c *cli.Context) app.QuoteFilter {
	return app.QuoteFilter{
		Search:        c.String("search"),
		Tags:          c.StringSlice("tag"),
		FavoritesOnly: c.Bool("favorites"),
	}
}

func listQuotes(c *cli.Context, s *session) error {
	quotes, err := s.Services.Quotes.Search(c.Context, quoteFilter(c))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, quotes)
	}

	tw := newTable(c.App.Writer, "ID", "BOOK", "AUTHOR", "QUOTE", "TAGS")
	for _, q := range quotes {
		tw.row(q.ID, q.Book, q.Author, preview(q.Text), strings.Join(q.Tags, ","))
	}

	return tw.flush()
}

func exportQuotes(c *cli.Context, s *session) error {
	return withOutput(c, func(w io.Writer) error {
		return s.Services.Quotes.ExportCSV(c.Context, w, quoteFilter(c))
	})
}

func importQuotes(c *cli.Context, s *session) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: biblioctl quotes import <csv-file|->", ExitUsageError)
	}

	r := c.App.Reader

	if path := c.Args().First(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(err.Error(), ExitDataError)
		}
		defer f.Close()

		r = f
	}

	result, err := s.Services.Quotes.ImportCSV(c.Context, r)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, result)
	}

	fmt.Fprintf(c.App.Writer, "imported %s, skipped %s\n",
		humanize.Comma(int64(result.Imported)), humanize.Comma(int64(len(result.Skipped))))

	for _, row := range result.Skipped {
		fmt.Fprintf(c.App.Writer, "  line %d: %s\n", row.Line, row.Reason)
	}

	return nil
}

func exportLogs(c *cli.Context, s *session) error {
	var filter app.ReadingLogFilter
	for _, status := range c.StringSlice("status") {
		filter.Statuses = append(filter.Statuses, domain.ReadingStatus(status))
	}

	return withOutput(c, func(w io.Writer) error {
		return s.Services.ReadingLogs.ExportCSV(c.Context, w, filter)
	})
}

func showTags(c *cli.Context, s *session) error {
	stats, err := s.Services.Quotes.TagStats(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, stats)
	}

	tw := newTable(c.App.Writer, "TAG", "QUOTES")
	for _, t := range stats.Tags {
		tw.row(t.Tag, humanize.Comma(int64(t.Count)))
	}

	if err := tw.flush(); err != nil {
		return err
	}

	if len(stats.Unused) > 0 {
		fmt.Fprintf(c.App.Writer, "\nunused: %s\n", strings.Join(stats.Unused, ", "))
	}

	return nil
}

func showBudget(c *cli.Context, s *session) error {
	summary, err := s.Services.Spendings.Summary(c.Context, c.Float64("budget"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, summary)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "this month: %s of %s (%s)\n", money(summary.ThisMonth), money(summary.Alert.Budget), summary.Alert.Level)

	if summary.Alert.Message != "" {
		fmt.Fprintln(w, summary.Alert.Message)
	}

	fmt.Fprintf(w, "all time:   %s, %s per book\n\n", money(summary.Total), money(summary.AveragePerBook))

	tw := newTable(w, "CATEGORY", "AMOUNT")
	for _, a := range summary.ByCategory {
		tw.row(a.Key, money(a.Amount))
	}

	return tw.flush()
}

func seedLibrary(c *cli.Context, s *session) error {
	if err := bootstrap.Seed(c.Context, s.Stores, s.logger); err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	counts, err := s.Stores.Counts(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, counts)
	}

	tw := newTable(c.App.Writer, "COLLECTION", "RECORDS")
	for _, table := range slices.Sorted(maps.Keys(counts)) {
		tw.row(table, humanize.Comma(int64(counts[table])))
	}

	return tw.flush()
}

// withOutput runs write against --output, or stdout when it is unset.
func withOutput(c *cli.Context, write func(io.Writer) error) error {
	path := c.String("output")
	if path == "" {
		return write(c.App.Writer)
	}

	f, err := os.Create(path)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= quotePreviewWidth {
		return s
	}

	return string(r[:quotePreviewWidth-1]) + "…"
}

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.row(headers...)

	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// CSV headers of the exports.
var (
	QuotesCSVHeader      = []string{"Quote", "Book", "Author", "Page", "Tags", "Date Added", "Favorite"}
	TagsCSVHeader        = []string{"Tag", "Usage Count"}
	ReadingLogsCSVHeader = []string{"Title", "Author", "Status", "Rating", "Current Page", "Total Pages", "Progress", "Start Date", "Finish Date", "Format"}
	ReviewsCSVHeader     = []string{"Book", "Author", "Rating", "Would Recommend", "Takeaways", "Tags", "Date"}
	WishlistCSVHeader    = []string{"Title", "Authors", "Genres", "Price", "Target Price", "Priority", "Status", "Gift Idea", "Date Added"}
	CategoriesCSVHeader  = []string{"Category", "Amount"}
)

// quoteImportColumns is the minimum column count of an imported quote row:
// quote, book, author, page, tags, date.
const quoteImportColumns = 6

const listSeparator = ";"

// writeCSV writes header followed by one row per item.
func writeCSV[T any](w io.Writer, header []string, items []T, row func(T) []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, item := range items {
		if err := cw.Write(row(item)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}

	return formatDate(*t)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportQuotesCSV writes quotes with their tags joined by semicolons.
func ExportQuotesCSV(w io.Writer, quotes []domain.Quote) error {
	return writeCSV(w, QuotesCSVHeader, quotes, func(q domain.Quote) []string {
		page := ""
		if q.PageNumber != nil {
			page = strconv.Itoa(*q.PageNumber)
		}

		return []string{
			q.Text,
			q.Book,
			q.Author,
			page,
			strings.Join(q.Tags, listSeparator),
			formatDate(q.DateAdded),
			strconv.FormatBool(q.Favorite),
		}
	})
}

// ExportTagsCSV writes one row per tag with its usage count.
func ExportTagsCSV(w io.Writer, stats domain.TagStats) error {
	return writeCSV(w, TagsCSVHeader, stats.Tags, func(u domain.TagUsage) []string {
		return []string{u.Tag, strconv.Itoa(u.Count)}
	})
}

// ExportReadingLogsCSV writes reading logs.
func ExportReadingLogsCSV(w io.Writer, logs []domain.ReadingLog) error {
	return writeCSV(w, ReadingLogsCSVHeader, logs, func(l domain.ReadingLog) []string {
		return []string{
			l.Title,
			l.Author,
			string(l.Status),
			strconv.Itoa(l.Rating),
			strconv.Itoa(l.CurrentPage),
			strconv.Itoa(l.TotalPages),
			strconv.Itoa(l.Progress),
			formatDatePtr(l.StartDate),
			formatDatePtr(l.FinishDate),
			string(l.Format),
		}
	})
}

// ExportReviewsCSV writes reviews.
func ExportReviewsCSV(w io.Writer, reviews []domain.Review) error {
	return writeCSV(w, ReviewsCSVHeader, reviews, func(r domain.Review) []string {
		return []string{
			r.Book,
			r.Author,
			strconv.Itoa(r.Rating),
			strconv.FormatBool(r.WouldRecommend),
			r.Takeaways,
			strings.Join(r.Tags, listSeparator),
			formatDate(r.Date),
		}
	})
}

// ExportWishlistCSV writes wishlist items.
func ExportWishlistCSV(w io.Writer, items []domain.WishlistItem) error {
	return writeCSV(w, WishlistCSVHeader, items, func(i domain.WishlistItem) []string {
		target := ""
		if i.TargetPrice > 0 {
			target = formatMoney(i.TargetPrice)
		}

		return []string{
			i.Title,
			strings.Join(i.Authors, listSeparator),
			strings.Join(i.Genres, listSeparator),
			formatMoney(i.Price),
			target,
			string(i.Priority),
			string(i.Status),
			strconv.FormatBool(i.IsGiftIdea),
			formatDate(i.DateAdded),
		}
	})
}

// ExportCategoriesCSV writes spending totals per category.
func ExportCategoriesCSV(w io.Writer, totals []domain.AmountByKey) error {
	return writeCSV(w, CategoriesCSVHeader, totals, func(a domain.AmountByKey) []string {
		return []string{a.Key, formatMoney(a.Amount)}
	})
}

// SkippedRow reports an imported line that was not turned into a record.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type importedQuote struct {
	line  int
	quote domain.Quote
}

// parseQuotesCSV reads quote rows after the header record. Rows that do not
// parse, have too few columns or carry an unreadable date are skipped and
// reported by their line in the file. Bare quotes inside a field are kept.
func parseQuotesCSV(r io.Reader) ([]importedQuote, []SkippedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var (
		quotes  []importedQuote
		skipped []SkippedRow
		header  = true
	)

	for {
		cols, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			header = false
			skipped = append(skipped, SkippedRow{Line: perr.StartLine, Reason: perr.Err.Error()})

			continue
		}

		if err != nil {
			return nil, nil, fmt.Errorf("reading csv: %w", err)
		}

		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)

		if len(cols) < quoteImportColumns {
			skipped = append(skipped, SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", quoteImportColumns, len(cols)),
			})

			continue
		}

		added, err := parseDate(cols[5])
		if err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: err.Error()})

			continue
		}

		q := domain.Quote{
			Text:      strings.TrimSpace(cols[0]),
			Book:      strings.TrimSpace(cols[1]),
			Author:    strings.TrimSpace(cols[2]),
			Tags:      domain.NormalizeTags(strings.Split(cols[4], listSeparator)),
			DateAdded: added,
		}

		if page, err := strconv.Atoi(strings.TrimSpace(cols[3])); err == nil && page > 0 {
			q.PageNumber = &page
		}

		quotes = append(quotes, importedQuote{line: line, quote: q})
	}

	return quotes, skipped, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

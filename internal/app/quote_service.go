package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// QuoteService orchestrates quote and tag use cases.
// Quote mutations are serialized so tag renames rewrite a consistent snapshot.
type QuoteService struct {
	*Collection[domain.Quote]

	tags  ports.Repository[domain.Tag]
	clock Clock
	mu    sync.Mutex
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Quotes   ports.Repository[domain.Quote]
	Tags     ports.Repository[domain.Tag]
	Logger   *slog.Logger
	Clock    Clock
	OnChange ChangeFunc
}

// NewQuoteService creates a new quote service. It panics when a
// repository is missing.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Quotes == nil || cfg.Tags == nil {
		panic("app: quote service requires quote and tag repositories")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		Collection: NewCollection(cfg.Quotes, domain.EntityQuote, "quotes", logger, cfg.OnChange),
		tags:       cfg.Tags,
		clock:      cfg.Clock,
	}
}

// Search returns the quotes view for filter.
func (s *QuoteService) Search(ctx context.Context, filter QuoteFilter) ([]domain.Quote, error) {
	set, err := filter.Set()
	if err != nil {
		return nil, err
	}

	return s.List(ctx, set)
}

// Create stores a new quote with a fresh id. Tags are normalized and the
// date added defaults to now.
func (s *QuoteService) Create(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.ID = domain.NewID()
	q.Tags = domain.NormalizeTags(q.Tags)

	if q.DateAdded.IsZero() {
		q.DateAdded = s.clock.now()
	}

	return s.insert(ctx, q)
}

// Update replaces the editable fields of the quote with id.
func (s *QuoteService) Update(ctx context.Context, id string, in domain.Quote) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(ctx, id, func(q *domain.Quote) error {
		q.Text = in.Text
		q.Book = in.Book
		q.Author = in.Author
		q.PageNumber = in.PageNumber
		q.Tags = domain.NormalizeTags(in.Tags)
		q.Notes = in.Notes
		q.Favorite = in.Favorite

		if !in.DateAdded.IsZero() {
			q.DateAdded = in.DateAdded
		}

		return nil
	})
}

// Delete removes the quote with id.
func (s *QuoteService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Collection.Delete(ctx, id)
}

// ToggleFavorite flips the favorite flag of the quote with id.
func (s *QuoteService) ToggleFavorite(ctx context.Context, id string) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(ctx, id, func(q *domain.Quote) error {
		q.Favorite = !q.Favorite

		return nil
	})
}

// FilterOptions are the distinct values the quotes view can be filtered by.
type FilterOptions struct {
	Books []string `json:"books"`
	Tags  []string `json:"tags"`
}

// Options returns the distinct books and tags in first-seen order.
func (s *QuoteService) Options(ctx context.Context) (FilterOptions, error) {
	quotes, err := s.All(ctx)
	if err != nil {
		return FilterOptions{}, err
	}

	opts := FilterOptions{Books: []string{}, Tags: []string{}}

	for _, q := range quotes {
		if !slices.Contains(opts.Books, q.Book) {
			opts.Books = append(opts.Books, q.Book)
		}

		for _, tag := range q.Tags {
			if !slices.Contains(opts.Tags, tag) {
				opts.Tags = append(opts.Tags, tag)
			}
		}
	}

	return opts, nil
}

// TagStats counts tag usage across quotes, including registered tags no
// quote carries yet. Tags are ordered by usage, then name.
func (s *QuoteService) TagStats(ctx context.Context) (domain.TagStats, error) {
	quotes, tags, err := Parallel2(ctx, s.All, s.tags.List)
	if err != nil {
		return domain.TagStats{}, fmt.Errorf("loading tags: %w", err)
	}

	return tagStats(quotes, tags), nil
}

func tagStats(quotes []domain.Quote, registered []domain.Tag) domain.TagStats {
	counts := make(map[string]int)

	for _, t := range registered {
		counts[t.Name] += 0
	}

	for _, q := range quotes {
		for _, tag := range q.Tags {
			counts[tag]++
		}
	}

	stats := domain.TagStats{Tags: make([]domain.TagUsage, 0, len(counts)), Unused: []string{}}
	for tag, n := range counts {
		stats.Tags = append(stats.Tags, domain.TagUsage{Tag: tag, Count: n})
	}

	slices.SortFunc(stats.Tags, func(a, b domain.TagUsage) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Tag, b.Tag)
	})

	for _, usage := range stats.Tags {
		if usage.Count == 0 {
			stats.Unused = append(stats.Unused, usage.Tag)
		} else if stats.MostUsed == "" {
			stats.MostUsed = usage.Tag
		}
	}

	return stats
}

// CreateTag registers a tag in the vocabulary before any quote uses it.
func (s *QuoteService) CreateTag(ctx context.Context, name string) (domain.Tag, error) {
	tag := domain.Tag{Name: domain.NormalizeTag(name), CreatedAt: s.clock.now()}
	if tag.Name == "" {
		return domain.Tag{}, domain.NewValidationError("name", "is required")
	}

	stats, err := s.TagStats(ctx)
	if err != nil {
		return domain.Tag{}, err
	}

	if slices.ContainsFunc(stats.Tags, func(u domain.TagUsage) bool { return u.Tag == tag.Name }) {
		return domain.Tag{}, domain.NewConflictError(domain.EntityTag, fmt.Sprintf("tag %q already exists", tag.Name))
	}

	if err := s.tags.Create(ctx, tag); err != nil {
		return domain.Tag{}, fmt.Errorf("creating tag: %w", err)
	}

	return tag, nil
}

// RenameTag replaces from with to on every quote in one write. Quotes that
// already carry to keep a single copy.
func (s *QuoteService) RenameTag(ctx context.Context, from, to string) (int, error) {
	from, to = domain.NormalizeTag(from), domain.NormalizeTag(to)
	if to == "" {
		return 0, domain.NewValidationError("name", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.All(ctx)
	if err != nil {
		return 0, err
	}

	renamed := 0

	for i, q := range quotes {
		if !q.HasTag(from) {
			continue
		}

		tags := slices.Clone(q.Tags)
		tags[slices.Index(tags, from)] = to
		quotes[i].Tags = domain.NormalizeTags(tags)
		renamed++
	}

	registered, err := s.tags.Get(ctx, from)
	isRegistered := err == nil

	if err != nil && !domain.IsNotFound(err) {
		return 0, fmt.Errorf("loading tag: %w", err)
	}

	if renamed == 0 && !isRegistered {
		return 0, domain.NewNotFoundError(domain.EntityTag, from)
	}

	if from == to {
		return renamed, nil
	}

	if renamed > 0 {
		if err := s.repo.ReplaceAll(ctx, quotes); err != nil {
			return 0, fmt.Errorf("renaming tag: %w", err)
		}
	}

	if isRegistered {
		if err := s.tags.Delete(ctx, from); err != nil {
			return 0, fmt.Errorf("renaming tag: %w", err)
		}

		registered.Name = to
		if err := s.tags.Create(ctx, registered); err != nil && !domain.IsConflict(err) {
			return 0, fmt.Errorf("renaming tag: %w", err)
		}
	}

	s.logFor(ctx, "RenameTag").InfoContext(ctx, "renamed tag",
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("quotes", renamed),
	)
	s.changed(ctx)

	return renamed, nil
}

// DeleteTag removes an unused tag from the vocabulary. Tags still carried by
// a quote cannot be deleted.
func (s *QuoteService) DeleteTag(ctx context.Context, name string) error {
	name = domain.NormalizeTag(name)

	quotes, err := s.All(ctx)
	if err != nil {
		return err
	}

	if slices.ContainsFunc(quotes, func(q domain.Quote) bool { return q.HasTag(name) }) {
		return domain.NewConflictError(domain.EntityTag, fmt.Sprintf("tag %q is still in use", name))
	}

	if err := s.tags.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	return nil
}

// CleanUnusedTags deletes every registered tag no quote carries.
func (s *QuoteService) CleanUnusedTags(ctx context.Context) ([]string, error) {
	stats, err := s.TagStats(ctx)
	if err != nil {
		return nil, err
	}

	for _, tag := range stats.Unused {
		if err := s.tags.Delete(ctx, tag); err != nil && !domain.IsNotFound(err) {
			return nil, fmt.Errorf("deleting tag %q: %w", tag, err)
		}
	}

	return stats.Unused, nil
}

// ImportResult reports the outcome of a quotes CSV import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

type parsedQuotes struct {
	quotes  []importedQuote
	skipped []SkippedRow
}

// ImportCSV adds the quotes of a CSV file laid out as the export is.
// The header record is skipped. Rows that are unreadable, short, undated
// or fail validation are reported in the result; the rest are stored.
func (s *QuoteService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	op := Operation[io.Reader, parsedQuotes, parsedQuotes, ImportResult]{
		Name: "ImportQuotes",
		Validate: func(_ context.Context, r io.Reader) error {
			if r == nil {
				return domain.NewValidationError("file", "is required")
			}

			return nil
		},
		Perform: func(_ context.Context, r io.Reader) (parsedQuotes, error) {
			quotes, skipped, err := parseQuotesCSV(r)

			return parsedQuotes{quotes: quotes, skipped: skipped}, err
		},
		Verify: func(_ context.Context, _ io.Reader, parsed parsedQuotes) (parsedQuotes, error) {
			verified := parsedQuotes{skipped: parsed.skipped}

			for _, row := range parsed.quotes {
				if err := row.quote.Validate(); err != nil {
					verified.skipped = append(verified.skipped, SkippedRow{Line: row.line, Reason: err.Error()})

					continue
				}

				verified.quotes = append(verified.quotes, row)
			}

			return verified, nil
		},
		Archive: func(ctx context.Context, _ io.Reader, verified parsedQuotes) error {
			s.mu.Lock()
			defer s.mu.Unlock()

			for _, row := range verified.quotes {
				q := row.quote
				q.ID = domain.NewID()
				if _, err := s.insert(ctx, q); err != nil {
					return err
				}
			}

			return nil
		},
		Respond: func(_ context.Context, _ io.Reader, verified parsedQuotes) (ImportResult, error) {
			skipped := verified.skipped
			if skipped == nil {
				skipped = []SkippedRow{}
			}

			slices.SortFunc(skipped, func(a, b SkippedRow) int { return cmp.Compare(a.Line, b.Line) })

			return ImportResult{Imported: len(verified.quotes), Skipped: skipped}, nil
		},
	}

	return Execute(ctx, s.logger, op, r)
}

// ExportCSV writes the quotes view for filter as CSV.
func (s *QuoteService) ExportCSV(ctx context.Context, w io.Writer, filter QuoteFilter) error {
	quotes, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}

	return ExportQuotesCSV(w, quotes)
}

// ExportTagsCSV writes the tag usage table as CSV.
func (s *QuoteService) ExportTagsCSV(ctx context.Context, w io.Writer) error {
	stats, err := s.TagStats(ctx)
	if err != nil {
		return err
	}

	return ExportTagsCSV(w, stats)
}

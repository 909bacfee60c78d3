package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// DefaultEnrichConcurrency bounds concurrent catalog lookups in EnrichAll.
const DefaultEnrichConcurrency = 4

// ReadingLogService orchestrates reading-log and reading-session use cases.
type ReadingLogService struct {
	*Collection[domain.ReadingLog]

	sessions          *Collection[domain.ReadingSession]
	catalog           ports.CatalogClient
	flags             ports.FeatureFlags
	clock             Clock
	enrichConcurrency int
}

// ReadingLogServiceConfig contains configuration for the reading-log service.
type ReadingLogServiceConfig struct {
	Logs     ports.Repository[domain.ReadingLog]
	Sessions ports.Repository[domain.ReadingSession]

	// Catalog is optional. Without it logs are never enriched.
	Catalog ports.CatalogClient

	// Flags is optional. Without it enrichment is on whenever a catalog is set.
	Flags ports.FeatureFlags

	Logger            *slog.Logger
	Clock             Clock
	OnChange          ChangeFunc
	EnrichConcurrency int
}

// NewReadingLogService creates a new reading-log service. It panics when a
// repository is missing.
func NewReadingLogService(cfg ReadingLogServiceConfig) *ReadingLogService {
	if cfg.Logs == nil || cfg.Sessions == nil {
		panic("app: reading log service requires log and session repositories")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := cfg.EnrichConcurrency
	if limit <= 0 {
		limit = DefaultEnrichConcurrency
	}

	return &ReadingLogService{
		Collection:        NewCollection(cfg.Logs, domain.EntityReadingLog, "reading_logs", logger, cfg.OnChange),
		sessions:          NewCollection(cfg.Sessions, domain.EntityReadingSession, "reading_sessions", logger, cfg.OnChange),
		catalog:           cfg.Catalog,
		flags:             cfg.Flags,
		clock:             cfg.Clock,
		enrichConcurrency: limit,
	}
}

// Search returns the reading-log view for filter.
func (s *ReadingLogService) Search(ctx context.Context, filter ReadingLogFilter) ([]domain.ReadingLog, error) {
	set, err := filter.Set()
	if err != nil {
		return nil, err
	}

	return s.List(ctx, set)
}

// Create stores a new reading log. When it names a catalog book and lacks a
// title or author, the missing fields are filled from the catalog.
func (s *ReadingLogService) Create(ctx context.Context, log domain.ReadingLog) (domain.ReadingLog, error) {
	now := s.clock.now()

	log.ID = domain.NewID()
	log.CreatedAt = now
	log.UpdatedAt = now

	if log.Status == "" {
		log.Status = domain.StatusWantToRead
	}

	if err := s.enrich(ctx, &log); err != nil {
		return domain.ReadingLog{}, err
	}

	log.ApplyProgress(log.CurrentPage)
	log.TransitionTo(log.Status, now)

	return s.insert(ctx, log)
}

// enrichmentEnabled reports whether catalog lookups may run for this request.
func (s *ReadingLogService) enrichmentEnabled(ctx context.Context) bool {
	if s.catalog == nil {
		return false
	}

	if s.flags == nil {
		return true
	}

	return s.flags.IsEnabled(ctx, ports.FlagCatalogEnrichment, true)
}

func needsEnrichment(log domain.ReadingLog) bool {
	if log.CatalogBookID == "" {
		return false
	}

	return strings.TrimSpace(log.Title) == "" || strings.TrimSpace(log.Author) == "" || log.TotalPages == 0
}

// enrich fills missing title, author and page count from the catalog.
// An unreachable catalog is logged and leaves the log as given.
func (s *ReadingLogService) enrich(ctx context.Context, log *domain.ReadingLog) error {
	if !needsEnrichment(*log) || !s.enrichmentEnabled(ctx) {
		return nil
	}

	book, err := s.catalog.GetBook(ctx, log.CatalogBookID)

	switch {
	case err == nil:
	case domain.IsNotFound(err):
		return domain.NewValidationErrorWithValue("catalogBookId", "unknown catalog book", log.CatalogBookID)
	case domain.IsUnavailable(err):
		s.logFor(ctx, "enrich").WarnContext(ctx, "catalog unavailable, skipping enrichment",
			slog.String("catalog_book_id", log.CatalogBookID),
			slog.Any("error", err),
		)

		return nil
	default:
		return fmt.Errorf("looking up catalog book: %w", err)
	}

	if strings.TrimSpace(log.Title) == "" {
		log.Title = book.Title
	}

	if strings.TrimSpace(log.Author) == "" {
		log.Author = strings.Join(book.Authors, ", ")
	}

	if log.TotalPages == 0 {
		log.TotalPages = book.PageCount
	}

	return nil
}

// EnrichAll refreshes every log that references a catalog book and is
// missing data. Lookups run concurrently; failed lookups are logged and
// skipped. It returns how many logs were updated.
func (s *ReadingLogService) EnrichAll(ctx context.Context) (int, error) {
	if !s.enrichmentEnabled(ctx) {
		return 0, nil
	}

	logs, err := s.All(ctx)
	if err != nil {
		return 0, err
	}

	var fns []func(context.Context) (domain.ReadingLog, error)

	original := make(map[string]domain.ReadingLog, len(logs))

	for _, log := range logs {
		if !needsEnrichment(log) {
			continue
		}

		original[log.ID] = log

		fns = append(fns, func(ctx context.Context) (domain.ReadingLog, error) {
			err := s.enrich(ctx, &log)

			return log, err
		})
	}

	updated := 0

	for _, result := range ParallelPartialLimit(ctx, s.enrichConcurrency, fns...) {
		if result.Err != nil {
			s.logFor(ctx, "EnrichAll").WarnContext(ctx, "enrichment failed",
				slog.String("id", result.Value.ID),
				slog.Any("error", result.Err),
			)

			continue
		}

		enriched := result.Value
		if before := original[enriched.ID]; before.Title == enriched.Title &&
			before.Author == enriched.Author && before.TotalPages == enriched.TotalPages {
			continue
		}

		if _, err := s.modify(ctx, enriched.ID, func(l *domain.ReadingLog) error {
			l.Title, l.Author, l.TotalPages = enriched.Title, enriched.Author, enriched.TotalPages
			l.ApplyProgress(l.CurrentPage)
			l.UpdatedAt = s.clock.now()

			return nil
		}); err != nil {
			return updated, err
		}

		updated++
	}

	return updated, nil
}

// Update replaces the editable fields of the log with id.
func (s *ReadingLogService) Update(ctx context.Context, id string, in domain.ReadingLog) (domain.ReadingLog, error) {
	return s.modify(ctx, id, func(l *domain.ReadingLog) error {
		l.CatalogBookID = in.CatalogBookID
		l.Title = in.Title
		l.Author = in.Author
		l.Rating = in.Rating
		l.TotalPages = in.TotalPages
		l.Progress = in.Progress
		l.StartDate = in.StartDate
		l.FinishDate = in.FinishDate
		l.EstimatedHours = in.EstimatedHours
		l.ActualHours = in.ActualHours
		l.Favorite = in.Favorite
		l.Format = in.Format
		l.Notes = in.Notes
		l.UpdatedAt = s.clock.now()

		l.ApplyProgress(in.CurrentPage)

		if in.Status != "" {
			l.TransitionTo(in.Status, l.UpdatedAt)
		}

		return nil
	})
}

// UpdateStatus moves the log with id to status.
func (s *ReadingLogService) UpdateStatus(ctx context.Context, id string, status domain.ReadingStatus) (domain.ReadingLog, error) {
	if !status.Valid() {
		return domain.ReadingLog{}, domain.NewValidationErrorWithValue("status", "unknown status", string(status))
	}

	return s.modify(ctx, id, func(l *domain.ReadingLog) error {
		l.UpdatedAt = s.clock.now()
		l.TransitionTo(status, l.UpdatedAt)

		return nil
	})
}

// UpdateProgress records the current page of the log with id.
func (s *ReadingLogService) UpdateProgress(ctx context.Context, id string, currentPage int) (domain.ReadingLog, error) {
	if currentPage < 0 {
		return domain.ReadingLog{}, domain.NewValidationErrorWithValue("currentPage", "must not be negative", currentPage)
	}

	return s.modify(ctx, id, func(l *domain.ReadingLog) error {
		l.ApplyProgress(currentPage)
		l.UpdatedAt = s.clock.now()

		return nil
	})
}

// ToggleFavorite flips the favorite flag of the log with id.
func (s *ReadingLogService) ToggleFavorite(ctx context.Context, id string) (domain.ReadingLog, error) {
	return s.modify(ctx, id, func(l *domain.ReadingLog) error {
		l.Favorite = !l.Favorite
		l.UpdatedAt = s.clock.now()

		return nil
	})
}

// Delete removes the log with id together with its sessions.
func (s *ReadingLogService) Delete(ctx context.Context, id string) error {
	sessions, err := s.Sessions(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Collection.Delete(ctx, id); err != nil {
		return err
	}

	for _, session := range sessions {
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !domain.IsNotFound(err) {
			return err
		}
	}

	return nil
}

// Stats summarizes the whole collection as of now.
func (s *ReadingLogService) Stats(ctx context.Context) (domain.ReadingStats, error) {
	logs, err := s.All(ctx)
	if err != nil {
		return domain.ReadingStats{}, err
	}

	return readingStats(logs, s.clock.now()), nil
}

func readingStats(logs []domain.ReadingLog, now time.Time) domain.ReadingStats {
	stats := domain.ReadingStats{TotalBooks: len(logs)}

	var ratingSum, rated int

	for _, l := range logs {
		switch l.Status {
		case domain.StatusRead:
			stats.BooksRead++

			if l.FinishDate != nil && l.FinishDate.Year() == now.Year() {
				stats.BooksReadThisYear++

				if l.FinishDate.Month() == now.Month() {
					stats.BooksReadThisMonth++
				}
			}
		case domain.StatusCurrentlyReading:
			stats.CurrentlyReading++
		case domain.StatusWantToRead:
			stats.WantToRead++
		case domain.StatusOnHold:
			stats.OnHold++
		case domain.StatusDidNotFinish:
			stats.DidNotFinish++
		}

		if l.Rating > 0 {
			ratingSum += l.Rating
			rated++
		}

		stats.TotalReadingHours += l.ActualHours
	}

	if rated > 0 {
		stats.AverageRating = round1(float64(ratingSum) / float64(rated))
	}

	stats.TotalReadingHours = round1(stats.TotalReadingHours)

	return stats
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

const minutesPerHour = 60

// LogSession records a reading session against the log with logID. The
// session's minutes are added to the log's actual reading time and its
// pages advance the current page.
func (s *ReadingLogService) LogSession(ctx context.Context, logID string, session domain.ReadingSession) (domain.ReadingSession, error) {
	if _, err := s.Get(ctx, logID); err != nil {
		return domain.ReadingSession{}, err
	}

	session.ID = domain.NewID()
	session.ReadingLogID = logID

	if session.StartedAt.IsZero() {
		session.StartedAt = s.clock.now()
	}

	stored, err := s.sessions.insert(ctx, session)
	if err != nil {
		return domain.ReadingSession{}, err
	}

	if _, err := s.modify(ctx, logID, func(l *domain.ReadingLog) error {
		l.ActualHours = round1(l.ActualHours + float64(session.Minutes)/minutesPerHour)

		page := l.CurrentPage + session.PagesRead
		if l.TotalPages > 0 {
			page = min(page, l.TotalPages)
		}

		l.ApplyProgress(page)
		l.UpdatedAt = s.clock.now()

		return nil
	}); err != nil {
		return domain.ReadingSession{}, err
	}

	return stored, nil
}

// Sessions lists the sessions of the log with logID, newest first.
func (s *ReadingLogService) Sessions(ctx context.Context, logID string) ([]domain.ReadingSession, error) {
	all, err := s.sessions.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ReadingSession, 0)

	for _, session := range all {
		if session.ReadingLogID == logID {
			out = append(out, session)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.ReadingSession) int {
		return cmp.Compare(b.StartedAt.UnixNano(), a.StartedAt.UnixNano())
	})

	return out, nil
}

// ExportCSV writes the reading-log view for filter as CSV.
func (s *ReadingLogService) ExportCSV(ctx context.Context, w io.Writer, filter ReadingLogFilter) error {
	logs, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}

	return ExportReadingLogsCSV(w, logs)
}

package app

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// ReviewService orchestrates review use cases.
type ReviewService struct {
	*Collection[domain.Review]

	clock Clock
}

// ReviewServiceConfig contains configuration for the review service.
type ReviewServiceConfig struct {
	Reviews  ports.Repository[domain.Review]
	Logger   *slog.Logger
	Clock    Clock
	OnChange ChangeFunc
}

// NewReviewService creates a new review service. It panics when the
// repository is missing.
func NewReviewService(cfg ReviewServiceConfig) *ReviewService {
	if cfg.Reviews == nil {
		panic("app: review service requires a review repository")
	}

	return &ReviewService{
		Collection: NewCollection(cfg.Reviews, domain.EntityReview, "reviews", cfg.Logger, cfg.OnChange),
		clock:      cfg.Clock,
	}
}

// Search returns the reviews view for filter, newest first.
func (s *ReviewService) Search(ctx context.Context, filter ReviewFilter) ([]domain.Review, error) {
	set, err := filter.Set()
	if err != nil {
		return nil, err
	}

	return s.List(ctx, set)
}

// Create stores a new review dated now unless a date is given.
func (s *ReviewService) Create(ctx context.Context, r domain.Review) (domain.Review, error) {
	r.ID = domain.NewID()
	r.Tags = domain.NormalizeTags(r.Tags)

	if r.Date.IsZero() {
		r.Date = s.clock.now()
	}

	return s.insert(ctx, r)
}

// Update replaces the editable fields of the review with id.
func (s *ReviewService) Update(ctx context.Context, id string, in domain.Review) (domain.Review, error) {
	return s.modify(ctx, id, func(r *domain.Review) error {
		r.Book = in.Book
		r.Author = in.Author
		r.Rating = in.Rating
		r.Takeaways = in.Takeaways
		r.WouldRecommend = in.WouldRecommend
		r.Tags = domain.NormalizeTags(in.Tags)
		r.Notes = in.Notes

		if !in.Date.IsZero() {
			r.Date = in.Date
		}

		return nil
	})
}

// Stats summarizes every review.
func (s *ReviewService) Stats(ctx context.Context) (domain.ReviewStats, error) {
	reviews, err := s.All(ctx)
	if err != nil {
		return domain.ReviewStats{}, err
	}

	return reviewStats(reviews), nil
}

func reviewStats(reviews []domain.Review) domain.ReviewStats {
	stats := domain.ReviewStats{Count: len(reviews)}
	if stats.Count == 0 {
		return stats
	}

	sum := 0

	for _, r := range reviews {
		sum += r.Rating

		if r.WouldRecommend {
			stats.RecommendedCount++
		}
	}

	stats.AverageRating = round1(float64(sum) / float64(stats.Count))
	stats.RecommendRate = int(math.Round(float64(stats.RecommendedCount) / float64(stats.Count) * 100))

	return stats
}

// ExportCSV writes the reviews view for filter as CSV.
func (s *ReviewService) ExportCSV(ctx context.Context, w io.Writer, filter ReviewFilter) error {
	reviews, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}

	return ExportReviewsCSV(w, reviews)
}

package app

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// ProfileService manages the single reader profile and its derived stats.
type ProfileService struct {
	*Collection[domain.Profile]

	logs    ports.Repository[domain.ReadingLog]
	quotes  ports.Repository[domain.Quote]
	reviews ports.Repository[domain.Review]
	clock   Clock
}

// ProfileServiceConfig contains configuration for the profile service.
type ProfileServiceConfig struct {
	Profiles ports.Repository[domain.Profile]
	Logs     ports.Repository[domain.ReadingLog]
	Quotes   ports.Repository[domain.Quote]
	Reviews  ports.Repository[domain.Review]
	Logger   *slog.Logger
	Clock    Clock
	OnChange ChangeFunc
}

// NewProfileService creates a new profile service. It panics when a
// repository is missing.
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	if cfg.Profiles == nil || cfg.Logs == nil || cfg.Quotes == nil || cfg.Reviews == nil {
		panic("app: profile service requires profile, log, quote and review repositories")
	}

	return &ProfileService{
		Collection: NewCollection(cfg.Profiles, domain.EntityProfile, "profiles", cfg.Logger, cfg.OnChange),
		logs:       cfg.Logs,
		quotes:     cfg.Quotes,
		reviews:    cfg.Reviews,
		clock:      cfg.Clock,
	}
}

// Profile returns the reader profile.
func (s *ProfileService) Profile(ctx context.Context) (domain.Profile, error) {
	return s.Get(ctx, domain.ProfileID)
}

// Update saves the reader profile, creating it on first use. The joined
// date is kept once set.
func (s *ProfileService) Update(ctx context.Context, in domain.Profile) (domain.Profile, error) {
	in.ID = domain.ProfileID

	current, err := s.Profile(ctx)

	switch {
	case err == nil:
		return s.modify(ctx, domain.ProfileID, func(p *domain.Profile) error {
			if in.Joined.IsZero() {
				in.Joined = current.Joined
			}

			*p = in

			return nil
		})
	case domain.IsNotFound(err):
		if in.Joined.IsZero() {
			in.Joined = s.clock.now()
		}

		return s.insert(ctx, in)
	default:
		return domain.Profile{}, err
	}
}

// View returns the profile together with stats derived from the library.
func (s *ProfileService) View(ctx context.Context) (domain.ProfileView, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return domain.ProfileView{}, err
	}

	logs, quotes, reviews, err := Parallel3(ctx, s.logs.List, s.quotes.List, s.reviews.List)
	if err != nil {
		return domain.ProfileView{}, err
	}

	return domain.ProfileView{
		Profile: profile,
		Stats:   profileStats(profile, logs, len(quotes), reviews, s.clock.now()),
	}, nil
}

func profileStats(
	profile domain.Profile,
	logs []domain.ReadingLog,
	quotes int,
	reviews []domain.Review,
	now time.Time,
) domain.ProfileStats {
	reading := readingStats(logs, now)
	rs := reviewStats(reviews)

	stats := domain.ProfileStats{
		BooksRead:     reading.BooksRead,
		BooksOwned:    reading.TotalBooks,
		Quotes:        quotes,
		Reviews:       rs.Count,
		AverageRating: rs.AverageRating,
	}

	if profile.AnnualGoal > 0 {
		pct := math.Round(float64(reading.BooksReadThisYear) / float64(profile.AnnualGoal) * 100)
		stats.GoalProgress = int(math.Min(pct, 100))
	}

	return stats
}

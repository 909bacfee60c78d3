package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/jsamuelsen/biblioteca/internal/app/unit"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// DefaultWishlistBudget is the monthly wishlist budget when none is configured.
const DefaultWishlistBudget = 200.0

// WishlistService orchestrates wishlist use cases.
type WishlistService struct {
	*Collection[domain.WishlistItem]

	library *ReadingLogService
	budget  float64
	clock   Clock
}

// WishlistServiceConfig contains configuration for the wishlist service.
type WishlistServiceConfig struct {
	Wishlist ports.Repository[domain.WishlistItem]

	// Library receives books moved off the wishlist.
	Library *ReadingLogService

	MonthlyBudget float64
	Logger        *slog.Logger
	Clock         Clock
	OnChange      ChangeFunc
}

// NewWishlistService creates a new wishlist service. It panics when the
// repository or the library is missing.
func NewWishlistService(cfg WishlistServiceConfig) *WishlistService {
	if cfg.Wishlist == nil || cfg.Library == nil {
		panic("app: wishlist service requires a wishlist repository and a library")
	}

	budget := cfg.MonthlyBudget
	if budget <= 0 {
		budget = DefaultWishlistBudget
	}

	return &WishlistService{
		Collection: NewCollection(cfg.Wishlist, domain.EntityWishlistItem, "wishlist", cfg.Logger, cfg.OnChange),
		library:    cfg.Library,
		budget:     budget,
		clock:      cfg.Clock,
	}
}

// Search returns the wishlist view for filter.
func (s *WishlistService) Search(ctx context.Context, filter WishlistFilter) ([]domain.WishlistItem, error) {
	set, err := filter.Set()
	if err != nil {
		return nil, err
	}

	return s.List(ctx, set)
}

// Create stores a new item, defaulting to medium priority and not purchased.
func (s *WishlistService) Create(ctx context.Context, item domain.WishlistItem) (domain.WishlistItem, error) {
	item.ID = domain.NewID()
	item.ApplyDefaults()

	if item.DateAdded.IsZero() {
		item.DateAdded = s.clock.now()
	}

	return s.insert(ctx, item)
}

// Update replaces the editable fields of the item with id.
func (s *WishlistService) Update(ctx context.Context, id string, in domain.WishlistItem) (domain.WishlistItem, error) {
	return s.modify(ctx, id, func(w *domain.WishlistItem) error {
		dateAdded := w.DateAdded

		*w = in
		w.ID = id
		w.DateAdded = dateAdded
		w.ApplyDefaults()

		return nil
	})
}

// SetPriority changes the priority of the item with id.
func (s *WishlistService) SetPriority(ctx context.Context, id string, priority domain.Priority) (domain.WishlistItem, error) {
	if !priority.Valid() {
		return domain.WishlistItem{}, domain.NewValidationErrorWithValue("priority", "must be High, Medium or Low", string(priority))
	}

	return s.modify(ctx, id, func(w *domain.WishlistItem) error {
		w.Priority = priority

		return nil
	})
}

// ToggleGift flips the gift-idea flag of the item with id.
func (s *WishlistService) ToggleGift(ctx context.Context, id string) (domain.WishlistItem, error) {
	return s.modify(ctx, id, func(w *domain.WishlistItem) error {
		w.IsGiftIdea = !w.IsGiftIdea

		return nil
	})
}

// SetPriceAlert sets the price at or below which the item is reported by
// PriceAlerts. Zero clears the alert.
func (s *WishlistService) SetPriceAlert(ctx context.Context, id string, threshold float64) (domain.WishlistItem, error) {
	return s.modify(ctx, id, func(w *domain.WishlistItem) error {
		w.PriceAlertThreshold = threshold

		return nil
	})
}

// PriceAlerts lists the items whose price dropped to their alert threshold.
func (s *WishlistService) PriceAlerts(ctx context.Context) ([]domain.WishlistItem, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.WishlistItem, 0)

	for _, item := range items {
		if item.PriceAlertTriggered() {
			alerts = append(alerts, item)
		}
	}

	return alerts, nil
}

// Stats summarizes the whole wishlist against the monthly budget.
func (s *WishlistService) Stats(ctx context.Context) (domain.WishlistStats, error) {
	items, err := s.All(ctx)
	if err != nil {
		return domain.WishlistStats{}, err
	}

	return wishlistStats(items, s.budget), nil
}

func wishlistStats(items []domain.WishlistItem, budget float64) domain.WishlistStats {
	stats := domain.WishlistStats{TotalItems: len(items), MonthlyBudget: budget}

	for _, item := range items {
		stats.TotalValue += item.Price

		switch item.Priority {
		case domain.PriorityHigh:
			stats.HighPriority++
		case domain.PriorityMedium:
			stats.MediumPriority++
		case domain.PriorityLow:
			stats.LowPriority++
		}

		if item.IsGiftIdea {
			stats.GiftIdeas++
		}
	}

	stats.TotalValue = round2(stats.TotalValue)

	if stats.TotalItems > 0 {
		stats.AveragePrice = round2(stats.TotalValue / float64(stats.TotalItems))
	}

	if budget > 0 {
		stats.BudgetProgress = round1(math.Min(stats.TotalValue/budget*100, 100))
	}

	return stats
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoveToLibrary turns the wishlist item with id into a reading log with
// status and removes it from the wishlist. Both writes succeed or neither
// is kept.
func (s *WishlistService) MoveToLibrary(ctx context.Context, id string, status domain.ReadingStatus) (domain.ReadingLog, error) {
	if status == "" {
		status = domain.StatusWantToRead
	}

	if !status.Valid() {
		return domain.ReadingLog{}, domain.NewValidationErrorWithValue("status", "unknown status", string(status))
	}

	u := unit.New(ctx)

	item, err := unit.Load(u, "wishlist:"+id, func(ctx context.Context) (domain.WishlistItem, error) {
		return s.Get(ctx, id)
	})
	if err != nil {
		return domain.ReadingLog{}, err
	}

	var created domain.ReadingLog

	err = u.Stage(unit.Step{
		Name: "create reading log",
		Do: func(ctx context.Context) error {
			log, err := s.library.Create(ctx, domain.ReadingLog{
				Title:  item.Title,
				Author: strings.Join(item.Authors, ", "),
				Status: status,
				Notes:  item.Notes,
			})
			if err != nil {
				return err
			}

			created = log

			return nil
		},
		Undo: func(ctx context.Context) error {
			return s.library.Delete(ctx, created.ID)
		},
	})
	if err != nil {
		return domain.ReadingLog{}, err
	}

	err = u.Stage(unit.Step{
		Name: "delete wishlist item",
		Do: func(ctx context.Context) error {
			return s.Delete(ctx, id)
		},
		Undo: func(ctx context.Context) error {
			return s.repo.Create(ctx, item)
		},
	})
	if err != nil {
		return domain.ReadingLog{}, err
	}

	if err := u.Commit(ctx); err != nil {
		return domain.ReadingLog{}, fmt.Errorf("moving %s to library: %w", domain.EntityWishlistItem, err)
	}

	s.logFor(ctx, "MoveToLibrary").InfoContext(ctx, "moved wishlist item to library",
		slog.String("id", id),
		slog.String("reading_log_id", created.ID),
	)

	return created, nil
}

// ExportCSV writes the wishlist view for filter as CSV.
func (s *WishlistService) ExportCSV(ctx context.Context, w io.Writer, filter WishlistFilter) error {
	items, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}

	return ExportWishlistCSV(w, items)
}

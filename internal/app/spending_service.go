package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// Budget defaults.
const (
	DefaultMonthlyBudget = 500.0
	DefaultWarnRatio     = 0.8
	DefaultTopVendors    = 5
)

// otherVendor labels purchases recorded without a vendor.
const otherVendor = "Other"

// Budget configures the monthly spending alert.
type Budget struct {
	Monthly    float64
	WarnRatio  float64
	TopVendors int
}

func (b Budget) withDefaults() Budget {
	if b.Monthly <= 0 {
		b.Monthly = DefaultMonthlyBudget
	}

	if b.WarnRatio <= 0 || b.WarnRatio >= 1 {
		b.WarnRatio = DefaultWarnRatio
	}

	if b.TopVendors <= 0 {
		b.TopVendors = DefaultTopVendors
	}

	return b
}

// SpendingService orchestrates purchase tracking use cases.
type SpendingService struct {
	*Collection[domain.Spending]

	budget Budget
	clock  Clock
}

// SpendingServiceConfig contains configuration for the spending service.
type SpendingServiceConfig struct {
	Spendings ports.Repository[domain.Spending]
	Budget    Budget
	Logger    *slog.Logger
	Clock     Clock
	OnChange  ChangeFunc
}

// NewSpendingService creates a new spending service. It panics when the
// repository is missing.
func NewSpendingService(cfg SpendingServiceConfig) *SpendingService {
	if cfg.Spendings == nil {
		panic("app: spending service requires a spending repository")
	}

	return &SpendingService{
		Collection: NewCollection(cfg.Spendings, domain.EntitySpending, "spendings", cfg.Logger, cfg.OnChange),
		budget:     cfg.Budget.withDefaults(),
		clock:      cfg.Clock,
	}
}

// Search returns purchases matching filter, newest first.
func (s *SpendingService) Search(ctx context.Context, filter SpendingFilter) ([]domain.Spending, error) {
	set, err := filter.Set()
	if err != nil {
		return nil, err
	}

	return s.List(ctx, set)
}

// Create records a purchase, dated now unless a date is given.
func (s *SpendingService) Create(ctx context.Context, sp domain.Spending) (domain.Spending, error) {
	sp.ID = domain.NewID()
	sp.Category = strings.TrimSpace(sp.Category)
	sp.Vendor = strings.TrimSpace(sp.Vendor)

	if sp.PurchasedAt.IsZero() {
		sp.PurchasedAt = s.clock.now()
	}

	return s.insert(ctx, sp)
}

// Update replaces the purchase with id.
func (s *SpendingService) Update(ctx context.Context, id string, in domain.Spending) (domain.Spending, error) {
	return s.modify(ctx, id, func(sp *domain.Spending) error {
		purchasedAt := sp.PurchasedAt

		*sp = in
		sp.ID = id

		if sp.PurchasedAt.IsZero() {
			sp.PurchasedAt = purchasedAt
		}

		return nil
	})
}

// Summary aggregates every purchase as of now, including the budget alert
// for the current month. A positive monthlyBudget overrides the configured one.
func (s *SpendingService) Summary(ctx context.Context, monthlyBudget float64) (domain.SpendingSummary, error) {
	spendings, err := s.All(ctx)
	if err != nil {
		return domain.SpendingSummary{}, err
	}

	budget := s.budget
	if monthlyBudget > 0 {
		budget.Monthly = monthlyBudget
	}

	return spendingSummary(spendings, budget, s.clock.now()), nil
}

func spendingSummary(spendings []domain.Spending, budget Budget, now time.Time) domain.SpendingSummary {
	budget = budget.withDefaults()

	summary := domain.SpendingSummary{}
	byCategory := make(map[string]float64)
	byVendor := make(map[string]float64)

	for i, sp := range spendings {
		summary.Total += sp.Amount
		byCategory[sp.Category] += sp.Amount

		vendor := sp.Vendor
		if vendor == "" {
			vendor = otherVendor
		}

		byVendor[vendor] += sp.Amount

		if summary.MostExpensive == nil || sp.Amount > summary.MostExpensive.Amount {
			summary.MostExpensive = &spendings[i]
		}

		switch sp.PurchasedAt.Year() {
		case now.Year():
			summary.MonthlyThisYear[sp.PurchasedAt.Month()-1] += sp.Amount

			if sp.PurchasedAt.Month() == now.Month() {
				summary.ThisMonth += sp.Amount
			}
		case now.Year() - 1:
			summary.MonthlyLastYear[sp.PurchasedAt.Month()-1] += sp.Amount
		}
	}

	if summary.MostExpensive != nil {
		most := *summary.MostExpensive
		summary.MostExpensive = &most
	}

	summary.Total = round2(summary.Total)
	summary.ThisMonth = round2(summary.ThisMonth)

	if len(spendings) > 0 {
		summary.AveragePerBook = round2(summary.Total / float64(len(spendings)))
	}

	for i := range summary.MonthlyThisYear {
		summary.MonthlyThisYear[i] = round2(summary.MonthlyThisYear[i])
		summary.MonthlyLastYear[i] = round2(summary.MonthlyLastYear[i])
	}

	summary.ByCategory = rankAmounts(byCategory, 0)
	summary.ByVendor = rankAmounts(byVendor, budget.TopVendors)
	summary.Alert = budgetAlert(summary.ThisMonth, budget)

	return summary
}

// rankAmounts orders totals by amount descending, then key. A positive
// limit keeps only the top entries.
func rankAmounts(totals map[string]float64, limit int) []domain.AmountByKey {
	out := make([]domain.AmountByKey, 0, len(totals))
	for key, amount := range totals {
		out = append(out, domain.AmountByKey{Key: key, Amount: round2(amount)})
	}

	slices.SortFunc(out, func(a, b domain.AmountByKey) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}

		return cmp.Compare(a.Key, b.Key)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

func budgetAlert(spent float64, budget Budget) domain.BudgetAlert {
	alert := domain.BudgetAlert{Level: domain.BudgetOK, Budget: budget.Monthly, Spent: spent}
	amount := "$" + humanize.FormatFloat("#,###.##", budget.Monthly)

	switch {
	case spent > budget.Monthly:
		alert.Level = domain.BudgetExceeded
		alert.Message = fmt.Sprintf("You have exceeded your monthly budget of %s.", amount)
	case spent > budget.Monthly*budget.WarnRatio:
		alert.Level = domain.BudgetNearing
		alert.Message = fmt.Sprintf("You are nearing your monthly budget of %s.", amount)
	}

	return alert
}

// ExportCategoriesCSV writes the spending total per category as CSV.
func (s *SpendingService) ExportCategoriesCSV(ctx context.Context, w io.Writer) error {
	summary, err := s.Summary(ctx, 0)
	if err != nil {
		return err
	}

	return ExportCategoriesCSV(w, summary.ByCategory)
}

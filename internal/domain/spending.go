package domain

import "time"

// Spending is one book purchase.
type Spending struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Vendor      string    `json:"vendor"`
	Amount      float64   `json:"amount"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// EntityID implements Entity.
func (s Spending) EntityID() string { return s.ID }

// Validate checks the purchase's business rules.
func (s Spending) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "title", s.Title)
	requireText(fe, "category", s.Category)

	if s.Amount <= 0 {
		fe.Add("amount", "must be positive")
	}

	if s.PurchasedAt.IsZero() {
		fe.Add("purchasedAt", "is required")
	}

	return fe.Err()
}

// AmountByKey is a labelled total, used for category and vendor breakdowns.
type AmountByKey struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}

// BudgetLevel grades this month's spending against the monthly budget.
type BudgetLevel string

// Budget levels.
const (
	BudgetOK       BudgetLevel = "ok"
	BudgetNearing  BudgetLevel = "nearing"
	BudgetExceeded BudgetLevel = "exceeded"
)

// BudgetAlert is the budget verdict for the current month.
type BudgetAlert struct {
	Level   BudgetLevel `json:"level"`
	Message string      `json:"message,omitempty"`
	Budget  float64     `json:"budget"`
	Spent   float64     `json:"spent"`
}

// SpendingSummary aggregates a spending collection.
type SpendingSummary struct {
	Total           float64       `json:"total"`
	ThisMonth       float64       `json:"thisMonth"`
	MostExpensive   *Spending     `json:"mostExpensive,omitempty"`
	AveragePerBook  float64       `json:"averagePerBook"`
	ByCategory      []AmountByKey `json:"byCategory"`
	ByVendor        []AmountByKey `json:"byVendor"`
	MonthlyThisYear [12]float64   `json:"monthlyThisYear"`
	MonthlyLastYear [12]float64   `json:"monthlyLastYear"`
	Alert           BudgetAlert   `json:"alert"`
}

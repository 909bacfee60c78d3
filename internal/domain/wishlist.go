package domain

import (
	"fmt"
	"time"
)

// Priority ranks how much the reader wants a book.
type Priority string

// Wishlist priorities.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// WishlistStatus tracks whether a wished-for book was bought.
type WishlistStatus string

// Wishlist statuses.
const (
	WishlistNotPurchased WishlistStatus = "Not Purchased"
	WishlistPurchased    WishlistStatus = "Purchased"
	WishlistOnHold       WishlistStatus = "On Hold"
)

// Valid reports whether s is a known wishlist status.
func (s WishlistStatus) Valid() bool {
	return s == WishlistNotPurchased || s == WishlistPurchased || s == WishlistOnHold
}

// WishlistItem is a book the reader wants to own.
type WishlistItem struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	Authors             []string       `json:"authors"`
	Genres              []string       `json:"genres,omitempty"`
	Price               float64        `json:"price"`
	TargetPrice         float64        `json:"targetPrice,omitempty"`
	Priority            Priority       `json:"priority"`
	Status              WishlistStatus `json:"status"`
	IsGiftIdea          bool           `json:"isGiftIdea"`
	PriceAlertThreshold float64        `json:"priceAlertThreshold,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	DateAdded           time.Time      `json:"dateAdded"`
}

// EntityID implements Entity.
func (w WishlistItem) EntityID() string { return w.ID }

// ApplyDefaults fills the priority and status a new item starts with.
func (w *WishlistItem) ApplyDefaults() {
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}

	if w.Status == "" {
		w.Status = WishlistNotPurchased
	}
}

// Validate checks the item's business rules.
func (w WishlistItem) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "title", w.Title)

	if !w.Priority.Valid() {
		fe.Add("priority", fmt.Sprintf("unknown priority %q", w.Priority))
	}

	if !w.Status.Valid() {
		fe.Add("status", fmt.Sprintf("unknown status %q", w.Status))
	}

	if w.Price < 0 || w.TargetPrice < 0 || w.PriceAlertThreshold < 0 {
		fe.Add("price", "prices must not be negative")
	}

	return fe.Err()
}

// EffectivePrice is the target price when one is set, else the list price.
func (w WishlistItem) EffectivePrice() float64 {
	if w.TargetPrice > 0 {
		return w.TargetPrice
	}

	return w.Price
}

// PriceAlertTriggered reports whether the list price dropped to the alert threshold.
func (w WishlistItem) PriceAlertTriggered() bool {
	return w.PriceAlertThreshold > 0 && w.Price <= w.PriceAlertThreshold
}

// WishlistStats summarizes a wishlist.
type WishlistStats struct {
	TotalItems     int     `json:"totalItems"`
	TotalValue     float64 `json:"totalValue"`
	AveragePrice   float64 `json:"averagePrice"`
	HighPriority   int     `json:"highPriority"`
	MediumPriority int     `json:"mediumPriority"`
	LowPriority    int     `json:"lowPriority"`
	GiftIdeas      int     `json:"giftIdeas"`
	MonthlyBudget  float64 `json:"monthlyBudget"`
	BudgetProgress float64 `json:"budgetProgress"`
}

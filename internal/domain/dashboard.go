package domain

import "time"

// Dashboard is the library-wide overview shown on the home page.
type Dashboard struct {
	Reading        ReadingStats    `json:"reading"`
	Quotes         int             `json:"quotes"`
	FavoriteQuotes int             `json:"favoriteQuotes"`
	Reviews        ReviewStats     `json:"reviews"`
	Wishlist       WishlistStats   `json:"wishlist"`
	Spending       SpendingSummary `json:"spending"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// Package domain contains the book-tracking entities and business errors.
//
// Entities are plain values: quotes, reading logs and their sessions,
// reviews, wishlist items, spendings and the reader profile. Each carries
// its own Validate method and exposes its identifier through EntityID so
// repositories can store any of them generically.
//
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and are mapped to transport codes by adapters.
package domain

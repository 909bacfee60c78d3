package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Entity is implemented by every record kept in a backing collection.
type Entity interface {
	EntityID() string
}

// Entity names used in errors and storage.
const (
	EntityQuote          = "quote"
	EntityReadingLog     = "reading log"
	EntityReadingSession = "reading session"
	EntityReview         = "review"
	EntityWishlistItem   = "wishlist item"
	EntitySpending       = "spending"
	EntityProfile        = "profile"
	EntityCatalogBook    = "catalog book"
	EntityTag            = "tag"
)

// NewID returns a time-ordered identifier.
// UUIDv7 keeps insertion order sortable and cannot collide the way
// millisecond timestamps do when two records are created together.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// NormalizeTag lowercases and hyphenates a tag: "Self Help" becomes "self-help".
func NormalizeTag(tag string) string {
	return slug.Make(strings.TrimSpace(tag))
}

// NormalizeTags normalizes every tag, dropping empties and duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}

		if _, dup := seen[normalized]; dup {
			continue
		}

		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	return out
}

func requireText(fe FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, "is required")
	}
}

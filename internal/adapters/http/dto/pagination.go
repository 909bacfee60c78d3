package dto

import (
	"encoding/base64"
	"errors"

	"github.com/jsamuelsen/biblioteca/internal/domain/collection"
)

// Page size bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for a cursor this API did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest is the cursor and page size of a list request. Embed it
// in query DTOs.
type PaginationRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=100"`
}

// PageSize returns Limit clamped to [1, MaxLimit], DefaultLimit when unset.
func (p PaginationRequest) PageSize() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// PaginatedResponse is one page of a list.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Paginate returns the page of items that follows the request cursor. Items
// must already be filtered and sorted; a cursor resumes after the item
// whose id it encodes.
func Paginate[T any](items []T, req PaginationRequest, idOf func(T) string) (*PaginatedResponse[T], error) {
	after, err := decodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	limit := req.PageSize()
	page := collection.Page(items, after, limit, idOf)

	resp := &PaginatedResponse[T]{Items: page}
	if len(page) > limit {
		resp.Items = page[:limit]
		resp.HasMore = true
		resp.NextCursor = encodeCursor(idOf(resp.Items[limit-1]))
	}

	return resp, nil
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	id, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(id) == 0 {
		return "", ErrInvalidCursor
	}

	return string(id), nil
}

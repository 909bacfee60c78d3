// Package collection filters, sorts and pages in-memory record slices.
//
// Every feature list in the application is a backing slice narrowed by a
// set of predicates and optionally ordered afterwards. Apply never mutates
// its input and keeps the input order among equal elements, so the same
// set applied twice yields the same result.
package collection

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Predicate reports whether an item passes one filter criterion.
type Predicate[T any] func(T) bool

// Set is an ordered group of predicates plus an optional ordering.
// An item passes the set only when every predicate accepts it.
type Set[T any] struct {
	Predicates []Predicate[T]
	Compare    func(a, b T) int
	Descending bool
}

// Empty returns a set that accepts everything and keeps input order.
func Empty[T any]() Set[T] {
	return Set[T]{}
}

// Where appends predicates, skipping nil entries so callers can add
// optional criteria unconditionally.
func (s Set[T]) Where(preds ...Predicate[T]) Set[T] {
	out := s
	out.Predicates = slices.Clone(s.Predicates)

	for _, p := range preds {
		if p != nil {
			out.Predicates = append(out.Predicates, p)
		}
	}

	return out
}

// SortBy returns a copy of the set ordered by compare.
func (s Set[T]) SortBy(compare func(a, b T) int, descending bool) Set[T] {
	out := s
	out.Compare = compare
	out.Descending = descending

	return out
}

// Matches reports whether item passes every predicate of the set.
func (s Set[T]) Matches(item T) bool {
	for _, p := range s.Predicates {
		if !p(item) {
			return false
		}
	}

	return true
}

// Apply returns the items that pass every predicate, sorted stably when the
// set has an ordering. The result is a new slice and never nil.
func Apply[T any](items []T, set Set[T]) []T {
	out := make([]T, 0, len(items))

	for _, item := range items {
		if set.Matches(item) {
			out = append(out, item)
		}
	}

	if set.Compare != nil {
		compare := set.Compare
		if set.Descending {
			compare = func(a, b T) int { return set.Compare(b, a) }
		}

		slices.SortStableFunc(out, compare)
	}

	return out
}

// Fold case-folds s for caseless comparison.
func Fold(s string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr appears in s ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}

	return strings.Contains(Fold(s), Fold(substr))
}

// SearchFold reports whether the trimmed query appears in any of fields,
// ignoring case. An empty query matches everything.
func SearchFold(query string, fields ...string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}

	folded := Fold(query)
	for _, field := range fields {
		if strings.Contains(Fold(field), folded) {
			return true
		}
	}

	return false
}

// EqualFold reports whether a and b are equal ignoring case.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// AnyOf reports whether have and want share at least one element.
// An empty want matches everything.
func AnyOf[E comparable](have, want []E) bool {
	if len(want) == 0 {
		return true
	}

	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}

	return false
}

// AnyOfFold is AnyOf for strings compared without case.
func AnyOfFold(have, want []string) bool {
	if len(want) == 0 {
		return true
	}

	for _, w := range want {
		for _, h := range have {
			if EqualFold(h, w) {
				return true
			}
		}
	}

	return false
}

// RemoveByID returns a copy of items without the element whose id matches.
// The second result is false when no element matched.
func RemoveByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	idx := slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
	if idx < 0 {
		return slices.Clone(items), false
	}

	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)

	return out, true
}

// Page returns up to limit+1 items following the element with id after.
// An empty after starts at the beginning. The extra element lets callers
// tell whether another page exists. An unknown after yields no items.
func Page[T any](items []T, after string, limit int, idOf func(T) string) []T {
	start := 0

	if after != "" {
		idx := slices.IndexFunc(items, func(item T) bool { return idOf(item) == after })
		if idx < 0 {
			return []T{}
		}

		start = idx + 1
	}

	end := min(start+limit+1, len(items))
	if start >= end {
		return []T{}
	}

	return slices.Clone(items[start:end])
}

// CompareStrings orders strings without case.
func CompareStrings(a, b string) int {
	return strings.Compare(Fold(a), Fold(b))
}

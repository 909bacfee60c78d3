package app

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/domain/collection"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// orderings maps a sort field name to its comparator.
type orderings[T any] map[string]func(a, b T) int

// apply adds the ordering named by field to set. An empty field keeps
// insertion order.
func (o orderings[T]) apply(set collection.Set[T], field, direction string) (collection.Set[T], error) {
	if field == "" {
		return set, nil
	}

	compare, ok := o[field]
	if !ok {
		return set, domain.NewValidationErrorWithValue("sortBy",
			"must be one of "+strings.Join(o.names(), ", "), field)
	}

	switch strings.ToLower(direction) {
	case "", SortAsc:
		return set.SortBy(compare, false), nil
	case SortDesc:
		return set.SortBy(compare, true), nil
	default:
		return set, domain.NewValidationErrorWithValue("sortOrder", "must be asc or desc", direction)
	}
}

func (o orderings[T]) names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// compareTimePtr orders nil times after set ones.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// QuoteFilter is the predicate set of the quotes view.
type QuoteFilter struct {
	Search        string
	Tags          []string
	Book          string
	FavoritesOnly bool
	SortBy        string
	SortOrder     string
}

var quoteOrderings = orderings[domain.Quote]{
	"dateAdded": func(a, b domain.Quote) int { return a.DateAdded.Compare(b.DateAdded) },
	"book":      func(a, b domain.Quote) int { return collection.CompareStrings(a.Book, b.Book) },
	"author":    func(a, b domain.Quote) int { return collection.CompareStrings(a.Author, b.Author) },
}

// Set builds the predicate set.
func (f QuoteFilter) Set() (collection.Set[domain.Quote], error) {
	set := collection.Empty[domain.Quote]()

	if f.Search != "" {
		set = set.Where(func(q domain.Quote) bool {
			return collection.SearchFold(f.Search, q.Text, q.Book, q.Author)
		})
	}

	if tags := domain.NormalizeTags(f.Tags); len(tags) > 0 {
		set = set.Where(func(q domain.Quote) bool { return collection.AnyOf(q.Tags, tags) })
	}

	if f.Book != "" {
		set = set.Where(func(q domain.Quote) bool { return q.Book == f.Book })
	}

	if f.FavoritesOnly {
		set = set.Where(func(q domain.Quote) bool { return q.Favorite })
	}

	return quoteOrderings.apply(set, f.SortBy, f.SortOrder)
}

// ReadingLogFilter is the predicate set of the reading-log view.
type ReadingLogFilter struct {
	Search      string
	Statuses    []domain.ReadingStatus
	Authors     []string
	MinRating   int
	Format      domain.BookFormat
	StartedFrom *time.Time
	StartedTo   *time.Time
	Favorites   bool
	SortBy      string
	SortOrder   string
}

var readingLogOrderings = orderings[domain.ReadingLog]{
	"title":      func(a, b domain.ReadingLog) int { return collection.CompareStrings(a.Title, b.Title) },
	"author":     func(a, b domain.ReadingLog) int { return collection.CompareStrings(a.Author, b.Author) },
	"startDate":  func(a, b domain.ReadingLog) int { return compareTimePtr(a.StartDate, b.StartDate) },
	"finishDate": func(a, b domain.ReadingLog) int { return compareTimePtr(a.FinishDate, b.FinishDate) },
	"rating":     func(a, b domain.ReadingLog) int { return cmp.Compare(a.Rating, b.Rating) },
	"updatedAt":  func(a, b domain.ReadingLog) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// Set builds the predicate set.
func (f ReadingLogFilter) Set() (collection.Set[domain.ReadingLog], error) {
	set := collection.Empty[domain.ReadingLog]()

	for _, s := range f.Statuses {
		if !s.Valid() {
			return set, domain.NewValidationErrorWithValue("status", "unknown status", string(s))
		}
	}

	if !f.Format.Valid() {
		return set, domain.NewValidationErrorWithValue("format", "unknown format", string(f.Format))
	}

	if f.Search != "" {
		set = set.Where(func(l domain.ReadingLog) bool {
			return collection.SearchFold(f.Search, l.Title, l.Author)
		})
	}

	if len(f.Statuses) > 0 {
		set = set.Where(func(l domain.ReadingLog) bool { return collection.AnyOf([]domain.ReadingStatus{l.Status}, f.Statuses) })
	}

	if len(f.Authors) > 0 {
		set = set.Where(func(l domain.ReadingLog) bool { return collection.AnyOfFold([]string{l.Author}, f.Authors) })
	}

	if f.MinRating > 0 {
		set = set.Where(func(l domain.ReadingLog) bool { return l.Rating >= f.MinRating })
	}

	if f.Format != "" {
		set = set.Where(func(l domain.ReadingLog) bool { return l.Format == f.Format })
	}

	if f.StartedFrom != nil || f.StartedTo != nil {
		set = set.Where(func(l domain.ReadingLog) bool {
			return l.StartDate != nil && inRange(*l.StartDate, f.StartedFrom, f.StartedTo)
		})
	}

	if f.Favorites {
		set = set.Where(func(l domain.ReadingLog) bool { return l.Favorite })
	}

	return readingLogOrderings.apply(set, f.SortBy, f.SortOrder)
}

// inRange reports whether t falls within the inclusive [from, to] bounds.
// A nil bound is open.
func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}

	if to != nil && t.After(*to) {
		return false
	}

	return true
}

// ReviewFilter is the predicate set of the reviews view. Reviews are always
// listed newest first.
type ReviewFilter struct {
	Search         string
	Rating         int
	WouldRecommend *bool
}

// Set builds the predicate set.
func (f ReviewFilter) Set() (collection.Set[domain.Review], error) {
	set := collection.Empty[domain.Review]().
		SortBy(func(a, b domain.Review) int { return a.Date.Compare(b.Date) }, true)

	if f.Rating < 0 || f.Rating > domain.MaxRating {
		return set, domain.NewValidationErrorWithValue("rating", "must be between 1 and 5", f.Rating)
	}

	if f.Search != "" {
		set = set.Where(func(r domain.Review) bool {
			return collection.SearchFold(f.Search, r.Takeaways, r.Book, r.Author)
		})
	}

	if f.Rating > 0 {
		set = set.Where(func(r domain.Review) bool { return r.Rating == f.Rating })
	}

	if f.WouldRecommend != nil {
		want := *f.WouldRecommend
		set = set.Where(func(r domain.Review) bool { return r.WouldRecommend == want })
	}

	return set, nil
}

// WishlistFilter is the predicate set of the wishlist view.
type WishlistFilter struct {
	Search     string
	Priorities []domain.Priority
	MinPrice   *float64
	MaxPrice   *float64
	Genres     []string
	Authors    []string
	GiftOnly   bool
	Statuses   []domain.WishlistStatus
	SortBy     string
	SortOrder  string
}

var priorityRank = map[domain.Priority]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
}

var wishlistOrderings = orderings[domain.WishlistItem]{
	"title":     func(a, b domain.WishlistItem) int { return collection.CompareStrings(a.Title, b.Title) },
	"price":     func(a, b domain.WishlistItem) int { return cmp.Compare(a.EffectivePrice(), b.EffectivePrice()) },
	"priority":  func(a, b domain.WishlistItem) int { return cmp.Compare(priorityRank[a.Priority], priorityRank[b.Priority]) },
	"dateAdded": func(a, b domain.WishlistItem) int { return a.DateAdded.Compare(b.DateAdded) },
}

// Set builds the predicate set.
func (f WishlistFilter) Set() (collection.Set[domain.WishlistItem], error) {
	set := collection.Empty[domain.WishlistItem]()

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return set, domain.NewValidationError("minPrice", "must not exceed maxPrice")
	}

	if f.Search != "" {
		set = set.Where(func(w domain.WishlistItem) bool {
			fields := append([]string{w.Title, w.Notes}, w.Authors...)

			return collection.SearchFold(f.Search, fields...)
		})
	}

	if len(f.Priorities) > 0 {
		set = set.Where(func(w domain.WishlistItem) bool { return collection.AnyOf([]domain.Priority{w.Priority}, f.Priorities) })
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		set = set.Where(func(w domain.WishlistItem) bool {
			price := w.EffectivePrice()

			return (f.MinPrice == nil || price >= *f.MinPrice) && (f.MaxPrice == nil || price <= *f.MaxPrice)
		})
	}

	if len(f.Genres) > 0 {
		set = set.Where(func(w domain.WishlistItem) bool { return collection.AnyOfFold(w.Genres, f.Genres) })
	}

	if len(f.Authors) > 0 {
		set = set.Where(func(w domain.WishlistItem) bool { return collection.AnyOfFold(w.Authors, f.Authors) })
	}

	if f.GiftOnly {
		set = set.Where(func(w domain.WishlistItem) bool { return w.IsGiftIdea })
	}

	if len(f.Statuses) > 0 {
		set = set.Where(func(w domain.WishlistItem) bool { return collection.AnyOf([]domain.WishlistStatus{w.Status}, f.Statuses) })
	}

	return wishlistOrderings.apply(set, f.SortBy, f.SortOrder)
}

// SpendingFilter is the predicate set of the spendings list.
type SpendingFilter struct {
	Category string
	Vendor   string
	From     *time.Time
	To       *time.Time
}

// Set builds the predicate set. Purchases are listed newest first.
func (f SpendingFilter) Set() (collection.Set[domain.Spending], error) {
	set := collection.Empty[domain.Spending]().
		SortBy(func(a, b domain.Spending) int { return a.PurchasedAt.Compare(b.PurchasedAt) }, true)

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return set, domain.NewValidationError("from", fmt.Sprintf("must not be after %s", f.To.Format(time.DateOnly)))
	}

	if f.Category != "" {
		set = set.Where(func(s domain.Spending) bool { return collection.EqualFold(s.Category, f.Category) })
	}

	if f.Vendor != "" {
		set = set.Where(func(s domain.Spending) bool { return collection.EqualFold(s.Vendor, f.Vendor) })
	}

	if f.From != nil || f.To != nil {
		set = set.Where(func(s domain.Spending) bool { return inRange(s.PurchasedAt, f.From, f.To) })
	}

	return set, nil
}

package domain

import "time"

// Quote is a passage the reader saved from a book.
type Quote struct {
	ID         string    `json:"id"`
	Text       string    `json:"quote"`
	Book       string    `json:"book"`
	Author     string    `json:"author"`
	PageNumber *int      `json:"pageNumber,omitempty"`
	Tags       []string  `json:"tags"`
	DateAdded  time.Time `json:"dateAdded"`
	Notes      string    `json:"notes,omitempty"`
	Favorite   bool      `json:"favorite"`
}

// EntityID implements Entity.
func (q Quote) EntityID() string { return q.ID }

// Validate checks the quote's business rules.
func (q Quote) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "quote", q.Text)
	requireText(fe, "book", q.Book)
	requireText(fe, "author", q.Author)

	if q.PageNumber != nil && *q.PageNumber < 1 {
		fe.Add("pageNumber", "must be at least 1")
	}

	return fe.Err()
}

// HasTag reports whether the quote carries tag.
func (q Quote) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// TagUsage is how many quotes carry a tag.
type TagUsage struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagStats summarizes tag usage across a quote collection.
type TagStats struct {
	Tags     []TagUsage `json:"tags"`
	MostUsed string     `json:"mostUsed,omitempty"`
	Unused   []string   `json:"unused"`
}

// Tag is an entry of the reader's tag vocabulary. Tags may exist with no
// quote attached; those are reported as unused.
type Tag struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntityID implements Entity.
func (t Tag) EntityID() string { return t.Name }

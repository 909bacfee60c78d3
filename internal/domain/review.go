package domain

import "time"

// Review is the reader's verdict on a finished book.
type Review struct {
	ID             string    `json:"id"`
	Book           string    `json:"book"`
	Author         string    `json:"author"`
	Rating         int       `json:"rating"`
	Takeaways      string    `json:"takeaways"`
	WouldRecommend bool      `json:"wouldRecommend"`
	Tags           []string  `json:"tags,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Date           time.Time `json:"date"`
}

// EntityID implements Entity.
func (r Review) EntityID() string { return r.ID }

// Validate checks the review's business rules.
func (r Review) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "book", r.Book)
	requireText(fe, "author", r.Author)
	requireText(fe, "takeaways", r.Takeaways)

	if r.Rating < 1 || r.Rating > MaxRating {
		fe.Add("rating", "must be between 1 and 5")
	}

	return fe.Err()
}

// ReviewStats summarizes a review collection.
type ReviewStats struct {
	Count            int     `json:"count"`
	AverageRating    float64 `json:"averageRating"`
	RecommendedCount int     `json:"recommendedCount"`
	RecommendRate    int     `json:"recommendRate"`
}

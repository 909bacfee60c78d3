package domain

import (
	"fmt"
	"math"
	"time"
)

// ReadingStatus is where a book stands in the reader's library.
type ReadingStatus string

// Reading statuses.
const (
	StatusWantToRead       ReadingStatus = "want_to_read"
	StatusCurrentlyReading ReadingStatus = "currently_reading"
	StatusRead             ReadingStatus = "read"
	StatusDidNotFinish     ReadingStatus = "did_not_finish"
	StatusOnHold           ReadingStatus = "on_hold"
)

// ReadingStatuses lists every status in display order.
var ReadingStatuses = []ReadingStatus{
	StatusWantToRead,
	StatusCurrentlyReading,
	StatusRead,
	StatusDidNotFinish,
	StatusOnHold,
}

// Valid reports whether s is a known status.
func (s ReadingStatus) Valid() bool {
	for _, known := range ReadingStatuses {
		if s == known {
			return true
		}
	}

	return false
}

// BookFormat is the medium a book is read in.
type BookFormat string

// Book formats.
const (
	FormatPhysical BookFormat = "PHYSICAL"
	FormatDigital  BookFormat = "DIGITAL"
)

// Valid reports whether f is a known format. The empty format is allowed.
func (f BookFormat) Valid() bool {
	return f == "" || f == FormatPhysical || f == FormatDigital
}

// MaxRating is the top of the five-star scale.
const MaxRating = 5

const percent = 100

// ReadingLog tracks one book through the reader's library.
type ReadingLog struct {
	ID             string        `json:"id"`
	CatalogBookID  string        `json:"catalogBookId,omitempty"`
	Title          string        `json:"title"`
	Author         string        `json:"author"`
	Status         ReadingStatus `json:"status"`
	Rating         int           `json:"rating"`
	CurrentPage    int           `json:"currentPage"`
	TotalPages     int           `json:"totalPages"`
	Progress       int           `json:"progress"`
	StartDate      *time.Time    `json:"startDate,omitempty"`
	FinishDate     *time.Time    `json:"finishDate,omitempty"`
	EstimatedHours float64       `json:"estimatedReadingTime,omitempty"`
	ActualHours    float64       `json:"actualReadingTime,omitempty"`
	Favorite       bool          `json:"favorite"`
	Format         BookFormat    `json:"format,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// EntityID implements Entity.
func (l ReadingLog) EntityID() string { return l.ID }

// Validate checks the log's business rules.
func (l ReadingLog) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "title", l.Title)
	requireText(fe, "author", l.Author)

	if !l.Status.Valid() {
		fe.Add("status", fmt.Sprintf("unknown status %q", l.Status))
	}

	if !l.Format.Valid() {
		fe.Add("format", fmt.Sprintf("unknown format %q", l.Format))
	}

	if l.Rating < 0 || l.Rating > MaxRating {
		fe.Add("rating", "must be between 0 and 5")
	}

	if l.CurrentPage < 0 || l.TotalPages < 0 {
		fe.Add("currentPage", "pages must not be negative")
	} else if l.TotalPages > 0 && l.CurrentPage > l.TotalPages {
		fe.Add("currentPage", "must not exceed totalPages")
	}

	if l.StartDate != nil && l.FinishDate != nil && l.FinishDate.Before(*l.StartDate) {
		fe.Add("finishDate", "must not be before startDate")
	}

	return fe.Err()
}

// ApplyProgress sets the current page and derives the percentage from the
// page count. Without a page count the percentage is left as given.
func (l *ReadingLog) ApplyProgress(currentPage int) {
	l.CurrentPage = currentPage
	if l.TotalPages <= 0 {
		return
	}

	pct := math.Round(float64(currentPage) / float64(l.TotalPages) * percent)
	l.Progress = int(math.Min(pct, percent))
}

// TransitionTo moves the log to status, stamping start and finish dates the
// first time the book is started or finished.
func (l *ReadingLog) TransitionTo(status ReadingStatus, now time.Time) {
	l.Status = status

	switch status {
	case StatusCurrentlyReading:
		if l.StartDate == nil {
			l.StartDate = &now
		}
	case StatusRead:
		if l.StartDate == nil {
			l.StartDate = &now
		}

		if l.FinishDate == nil {
			l.FinishDate = &now
		}

		l.Progress = percent

		if l.TotalPages > 0 {
			l.CurrentPage = l.TotalPages
		}
	case StatusWantToRead, StatusDidNotFinish, StatusOnHold:
	}
}

// ReadingSession is one sitting with a book.
type ReadingSession struct {
	ID           string    `json:"id"`
	ReadingLogID string    `json:"readingLogId"`
	StartedAt    time.Time `json:"startedAt"`
	Minutes      int       `json:"minutes"`
	PagesRead    int       `json:"pagesRead"`
	Notes        string    `json:"notes,omitempty"`
}

// EntityID implements Entity.
func (s ReadingSession) EntityID() string { return s.ID }

// Validate checks the session's business rules.
func (s ReadingSession) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "readingLogId", s.ReadingLogID)

	if s.Minutes <= 0 {
		fe.Add("minutes", "must be positive")
	}

	if s.PagesRead < 0 {
		fe.Add("pagesRead", "must not be negative")
	}

	return fe.Err()
}

// ReadingStats summarizes a reading-log collection.
type ReadingStats struct {
	TotalBooks         int     `json:"totalBooks"`
	BooksRead          int     `json:"booksRead"`
	CurrentlyReading   int     `json:"currentlyReading"`
	WantToRead         int     `json:"wantToRead"`
	OnHold             int     `json:"onHold"`
	DidNotFinish       int     `json:"didNotFinish"`
	AverageRating      float64 `json:"averageRating"`
	TotalReadingHours  float64 `json:"totalReadingTime"`
	BooksReadThisYear  int     `json:"booksReadThisYear"`
	BooksReadThisMonth int     `json:"booksReadThisMonth"`
}

package domain

import (
	"net/url"
	"time"
)

// ProfileID is the identifier of the single reader profile.
const ProfileID = "me"

// Profile describes the reader.
type Profile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Location    string            `json:"location,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	AvatarURL   string            `json:"avatarUrl,omitempty"`
	Joined      time.Time         `json:"joined"`
	AnnualGoal  int               `json:"annualGoal"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
}

// EntityID implements Entity.
func (p Profile) EntityID() string { return p.ID }

// Validate checks the profile's business rules.
func (p Profile) Validate() error {
	fe := FieldErrors{}

	requireText(fe, "name", p.Name)

	if p.AnnualGoal < 0 {
		fe.Add("annualGoal", "must not be negative")
	}

	for network, link := range p.SocialLinks {
		if u, err := url.Parse(link); err != nil || u.Scheme == "" || u.Host == "" {
			fe.Add("socialLinks."+network, "must be an absolute URL")
		}
	}

	return fe.Err()
}

// ProfileStats are derived from the other collections.
type ProfileStats struct {
	BooksRead     int     `json:"booksRead"`
	BooksOwned    int     `json:"booksOwned"`
	Quotes        int     `json:"quotes"`
	Reviews       int     `json:"reviews"`
	AverageRating float64 `json:"averageRating"`
	GoalProgress  int     `json:"goalProgress"`
}

// ProfileView is a profile together with its derived stats.
type ProfileView struct {
	Profile Profile      `json:"profile"`
	Stats   ProfileStats `json:"stats"`
}

package domain

import "github.com/google/uuid"

// Availability is the capacity state of a commission
type Availability string

const (
	AvailabilityOpen     Availability = "OPEN"
	AvailabilityWaitlist Availability = "WAITLIST"
	AvailabilityClosed   Availability = "CLOSED"
)

// Commission is an artist-defined offering with a price and an intake form
type Commission struct {
	BaseModel
	ArtistID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_commissions_artist_id" json:"artist_id"`
	FormID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_commissions_form_id" json:"form_id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Price        int64        `gorm:"not null;default:0" json:"price"` // minor units
	Currency     string       `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Availability Availability `gorm:"type:varchar(20);not null;default:'OPEN'" json:"availability"`
	Published    bool         `gorm:"not null;default:false" json:"published"`

	NewRequests      int `gorm:"not null;default:0" json:"new_requests"`
	AcceptedRequests int `gorm:"not null;default:0" json:"accepted_requests"`
	RejectedRequests int `gorm:"not null;default:0" json:"rejected_requests"`

	// Zero disables the threshold
	MaxCommissionsUntilWaitlist int `gorm:"not null;default:0" json:"max_commissions_until_waitlist"`
	MaxCommissionsUntilClosed   int `gorm:"not null;default:0" json:"max_commissions_until_closed"`

	Artist *Artist `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
}

func (Commission) TableName() string {
	return "commissions"
}

// ShouldWaitlist reports whether the next submission lands on the waitlist.
// The counter is bumped by one for the decision only.
func (c *Commission) ShouldWaitlist() bool {
	return c.MaxCommissionsUntilWaitlist != 0 && c.NewRequests+1 >= c.MaxCommissionsUntilWaitlist
}

// ShouldClose reports whether the next submission crosses the closing threshold
func (c *Commission) ShouldClose() bool {
	return c.MaxCommissionsUntilClosed != 0 && c.NewRequests+1 >= c.MaxCommissionsUntilClosed
}

// NextAvailability derives availability after one more submission
func (c *Commission) NextAvailability() Availability {
	switch {
	case c.ShouldClose():
		return AvailabilityClosed
	case c.ShouldWaitlist():
		return AvailabilityWaitlist
	default:
		return c.Availability
	}
}

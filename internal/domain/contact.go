package domain

import (
	"strings"
	"time"
)

// Contact represents a single reachable person in the contact store.
type Contact struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`

	Subscribed bool     `json:"subscribed" db:"subscribed"`
	Tags       []string `json:"tags" db:"tags"`

	// EngagementScore is clamped to [0, 100] everywhere it is written.
	EngagementScore int `json:"engagement_score" db:"engagement_score"`

	// Location is an ISO 3166-1 alpha-2 country code, or empty.
	Location string `json:"location" db:"location"`

	SignupSource string    `json:"signup_source" db:"signup_source"`
	SignupAt     time.Time `json:"signup_at" db:"signup_at"`

	// ProviderContactID is the external provider's contact identifier,
	// nil until the contact has been pushed once.
	ProviderContactID *string `json:"provider_contact_id" db:"provider_contact_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasProviderID reports whether the contact is linked to a provider record.
func (c *Contact) HasProviderID() bool {
	return c.ProviderContactID != nil && *c.ProviderContactID != ""
}

// Validate checks the minimum invariants for storing a contact.
func (c *Contact) Validate() error {
	if !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	if c.EngagementScore < 0 || c.EngagementScore > 100 {
		return ErrScoreOutOfRange
	}
	return nil
}

// ClampEngagement forces a raw score into the valid [0, 100] range.
func ClampEngagement(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

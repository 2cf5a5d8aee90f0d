package provider

import (
	"fmt"
	"time"
)

// APIError is a structured error returned by the provider API.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error (status %d, %s): %s", e.StatusCode, e.Name, e.Message)
}

// AudienceRequest creates a provider-side audience.
type AudienceRequest struct {
	Name string `json:"name"`
}

// AudienceResponse is the provider's audience payload.
type AudienceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContactRequest creates or updates a provider-side contact.
type ContactRequest struct {
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// ContactResponse is the provider's contact payload.
type ContactResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Unsubscribed bool      `json:"unsubscribed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContactList is the provider's paginated contact listing.
type ContactList struct {
	Data []ContactResponse `json:"data"`
}

// BroadcastRequest submits a campaign body for an entire audience.
type BroadcastRequest struct {
	AudienceID string `json:"audience_id"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	HTML       string `json:"html"`
}

// BroadcastResponse is the provider's broadcast payload.
type BroadcastResponse struct {
	ID string `json:"id"`
}

// SendBroadcastRequest dispatches a previously created broadcast,
// optionally at a scheduled time.
type SendBroadcastRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// EmailRequest sends a single transactional email (used for test sends).
type EmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// EmailResponse is the provider's single-send payload.
type EmailResponse struct {
	ID string `json:"id"`
}

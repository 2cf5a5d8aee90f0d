package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
//
// draft → {sending | scheduled} → sent. Scheduled campaigns move to sent
// asynchronously when the broadcast scheduler dispatches them.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignSending   CampaignStatus = "sending"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSent      CampaignStatus = "sent"
)

// ContentType enumerates campaign body formats.
type ContentType string

const (
	// ContentMarkdown is sanitized and passed through as-is.
	ContentMarkdown ContentType = "markdown"
	// ContentBlocks is structured rich content rendered against a fixed
	// node allow-list.
	ContentBlocks ContentType = "blocks"
	// ContentReact is a legacy component-based format the renderer does
	// not support; it renders to a placeholder.
	ContentReact ContentType = "react"
)

// ContentBlock is one node of structured rich content. Only the node
// types the renderer allow-lists (paragraph, h1–h6, list, quote) survive
// rendering; anything else is dropped outright.
type ContentBlock struct {
	Type  string   `json:"type"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// CampaignContent is a campaign body in exactly one of the three formats.
type CampaignContent struct {
	Type     ContentType    `json:"type"`
	Markdown string         `json:"markdown,omitempty"`
	Blocks   []ContentBlock `json:"blocks,omitempty"`
}

// TestSend records one attempted test delivery of a campaign.
type TestSend struct {
	Email   string    `json:"email"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Campaign is one outbound email campaign targeting a single audience.
// It references the audience by ID; deleting a campaign never deletes
// the audience.
type Campaign struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Subject   string          `json:"subject" db:"subject"`
	FromName  string          `json:"from_name" db:"from_name"`
	FromEmail string          `json:"from_email" db:"from_email"`
	Content   CampaignContent `json:"content" db:"content"`

	AudienceID string         `json:"audience_id" db:"audience_id"`
	Status     CampaignStatus `json:"status" db:"status"`

	ScheduledAt *time.Time `json:"scheduled_at" db:"scheduled_at"`

	// RecipientCount is a snapshot of the audience's contact count taken
	// when the broadcast was submitted.
	RecipientCount int `json:"recipient_count" db:"recipient_count"`

	// ProviderBroadcastID is set once the provider accepts the broadcast.
	ProviderBroadcastID *string `json:"provider_broadcast_id" db:"provider_broadcast_id"`

	// TestSends logs test deliveries, newest last.
	TestSends []TestSend `json:"test_sends,omitempty" db:"test_sends"`

	SentAt    *time.Time `json:"sent_at" db:"sent_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign has left the draft flow.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignSent || c.Status == CampaignScheduled || c.Status == CampaignSending
}

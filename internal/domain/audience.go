package domain

import "time"

// AudienceType enumerates how an audience's membership is defined.
type AudienceType string

const (
	// AudienceStatic is an operator-curated list of specific contacts.
	AudienceStatic AudienceType = "static"
	// AudienceDynamic computes membership from segment rules at resolve time.
	AudienceDynamic AudienceType = "dynamic"
	// AudienceAll targets every subscribed contact.
	AudienceAll AudienceType = "all"
)

// SegmentLogic controls how multiple segment rules combine.
type SegmentLogic string

const (
	// LogicAny OR-combines rule predicates.
	LogicAny SegmentLogic = "any"
	// LogicAll AND-combines rule predicates.
	LogicAll SegmentLogic = "all"
)

// Segment rule fields and operators. Anything outside these allow-lists
// is dropped before query construction and never reaches the data store.
const (
	FieldTags       = "tags"
	FieldLocation   = "location"
	FieldEngagement = "engagement"
	FieldSignupDate = "signupDate"
)

const (
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpEquals      = "equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
)

// SegmentRule is a single field/operator/value membership constraint.
type SegmentRule struct {
	Field    string `json:"field" db:"field"`
	Operator string `json:"operator" db:"operator"`
	Value    string `json:"value" db:"value"`
}

// SegmentRules is the declarative membership definition of a dynamic
// audience: an ordered rule list plus the combination logic.
type SegmentRules struct {
	Logic SegmentLogic  `json:"logic" db:"logic"`
	Rules []SegmentRule `json:"rules" db:"rules"`
}

// Audience is a named target list of contacts for campaign delivery.
// It owns its SegmentRules value (embedded, never shared between
// audiences). Campaigns reference an audience by ID but do not own it.
type Audience struct {
	ID   string       `json:"id" db:"id"`
	Name string       `json:"name" db:"name"`
	Type AudienceType `json:"type" db:"type"`

	// ContactIDs holds static membership as an ordered set of contact
	// references. Contacts may additionally carry the hydrated records
	// (populated from a join or an embedded API payload); when set,
	// resolution uses them directly instead of a lookup.
	ContactIDs []string  `json:"contact_ids,omitempty" db:"contact_ids"`
	Contacts   []Contact `json:"contacts,omitempty" db:"-"`

	// Rules defines membership for dynamic audiences.
	Rules *SegmentRules `json:"segment_rules,omitempty" db:"segment_rules"`

	// ContactCount is a cached count from the last sync.
	ContactCount int `json:"contact_count" db:"contact_count"`

	// ProviderAudienceID is the external provider's audience identifier,
	// nil until the first successful sync creates it.
	ProviderAudienceID *string    `json:"provider_audience_id" db:"provider_audience_id"`
	LastSyncedAt       *time.Time `json:"last_synced_at" db:"last_synced_at"`
	SyncError          *string    `json:"sync_error" db:"sync_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Synced reports whether this audience exists on the external provider.
func (a *Audience) Synced() bool {
	return a.ProviderAudienceID != nil && *a.ProviderAudienceID != ""
}

// SyncResult summarizes one sync run. It is transient: only the aggregate
// counts and last error persist on the Audience record.
type SyncResult struct {
	Synced int             `json:"synced"`
	Failed int             `json:"failed"`
	Errors []ContactError `json:"errors,omitempty"`
}

// ContactError records a single contact's sync failure.
type ContactError struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
	Error     string `json:"error"`
}

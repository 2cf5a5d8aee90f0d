package audience

import (
	"context"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/provider"
)

// SyncStateUpdate carries the fields persisted after a sync attempt.
type SyncStateUpdate struct {
	ContactCount int
	SyncedAt     time.Time
	SyncError    *string
}

// Repository is the persistence boundary for audiences.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Audience, error)
	List(ctx context.Context) ([]domain.Audience, error)
	Create(ctx context.Context, a *domain.Audience) (string, error)
	Update(ctx context.Context, a *domain.Audience) error
	Delete(ctx context.Context, id string) error

	// SetProviderAudienceID records the provider-side audience ID so
	// later syncs reuse it instead of creating duplicates.
	SetProviderAudienceID(ctx context.Context, id, providerID string) error

	// UpdateSyncState persists the outcome of a sync run.
	UpdateSyncState(ctx context.Context, id string, u SyncStateUpdate) error
}

// ContactRepository is the persistence boundary for contacts.
type ContactRepository interface {
	// GetByIDs loads contacts for an explicit ID list in a single
	// query. Missing IDs are skipped, not errors.
	GetByIDs(ctx context.Context, ids []string, limit int) ([]domain.Contact, error)

	// FindBySegment evaluates segment rules against the store and
	// returns matching subscribed contacts.
	FindBySegment(ctx context.Context, rules *domain.SegmentRules, limit int) ([]domain.Contact, error)

	// ListSubscribed returns subscribed contacts up to limit.
	ListSubscribed(ctx context.Context, limit int) ([]domain.Contact, error)

	// SetProviderContactID records the provider-side contact ID after a
	// successful create, making subsequent syncs idempotent.
	SetProviderContactID(ctx context.Context, id, providerID string) error
}

// EmailProvider is the subset of the provider client the synchronizer
// needs.
type EmailProvider interface {
	CreateAudience(ctx context.Context, name string) (*provider.AudienceResponse, error)
	CreateContact(ctx context.Context, audienceID string, req provider.ContactRequest) (*provider.ContactResponse, error)
	UpdateContact(ctx context.Context, audienceID, contactID string, req provider.ContactRequest) (*provider.ContactResponse, error)
}

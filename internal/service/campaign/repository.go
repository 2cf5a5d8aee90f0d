package campaign

import (
	"context"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/provider"
)

// Repository is the persistence boundary for campaigns.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context) ([]domain.Campaign, error)
	Create(ctx context.Context, c *domain.Campaign) (string, error)
	Update(ctx context.Context, c *domain.Campaign) error
	Delete(ctx context.Context, id string) error

	// TransitionStatus updates the campaign's status only when it still
	// has the expected one. Returns ErrNotDraft-compatible failure via
	// (false, nil) when the guard does not match.
	TransitionStatus(ctx context.Context, id string, from, to domain.CampaignStatus) (bool, error)

	// RecordSend persists the outcome of a production send.
	RecordSend(ctx context.Context, id string, broadcastID string, status domain.CampaignStatus, recipients int, sentAt *time.Time) error

	// AppendTestSend records one test-send attempt on the campaign.
	AppendTestSend(ctx context.Context, id string, ts domain.TestSend) error
}

// AudienceResolver materializes a campaign's audience into contacts.
type AudienceResolver interface {
	Get(ctx context.Context, id string) (*domain.Audience, error)
	ResolveContacts(ctx context.Context, a *domain.Audience) ([]domain.Contact, error)
}

// AudienceProvisioner guarantees the audience exists on the provider
// before a broadcast targets it, creating and persisting the provider
// counterpart when missing.
type AudienceProvisioner interface {
	EnsureProviderAudience(ctx context.Context, a *domain.Audience) (string, error)
}

// EmailProvider is the subset of the provider client the campaign
// service needs.
type EmailProvider interface {
	CreateBroadcast(ctx context.Context, req provider.BroadcastRequest) (*provider.BroadcastResponse, error)
	SendBroadcast(ctx context.Context, broadcastID string, req provider.SendBroadcastRequest) (*provider.BroadcastResponse, error)
	SendEmail(ctx context.Context, req provider.EmailRequest) (*provider.EmailResponse, error)
}

// JobQueue schedules deferred work, used to promote scheduled
// campaigns once their send time arrives.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload any, runAt time.Time) (string, error)
}

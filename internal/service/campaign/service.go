package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/logger"
	"github.com/voicehouse/outreach/internal/provider"
)

// SendOptions selects between a test send and a production send.
type SendOptions struct {
	Test       bool
	TestEmails []string
}

// SendResult carries the outcome of a send request.
type SendResult struct {
	Test        bool
	TestResults []domain.TestSend
	BroadcastID string
	Status      domain.CampaignStatus
	Recipients  int
}

// Service manages campaigns and drives the send state machine.
type Service struct {
	campaigns   Repository
	audiences   AudienceResolver
	provisioner AudienceProvisioner
	provider    EmailProvider
	jobs        JobQueue
}

func NewService(campaigns Repository, audiences AudienceResolver, provisioner AudienceProvisioner, p EmailProvider, jobs JobQueue) *Service {
	return &Service{campaigns: campaigns, audiences: audiences, provisioner: provisioner, provider: p, jobs: jobs}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.campaigns.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Campaign, error) {
	return s.campaigns.List(ctx)
}

func (s *Service) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	return s.campaigns.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c *domain.Campaign) error {
	return s.campaigns.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.campaigns.Delete(ctx, id)
}

// Send dispatches a campaign. Test sends deliver to the given
// addresses with a "[TEST] " subject prefix and never change campaign
// status. Production sends require a draft campaign and move it to
// sending (immediate) or scheduled (future ScheduledAt).
func (s *Service) Send(ctx context.Context, id string, opts SendOptions) (*SendResult, error) {
	c, err := s.campaigns.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Test {
		return s.sendTest(ctx, c, opts.TestEmails)
	}
	return s.sendProduction(ctx, c)
}

// sendTest delivers the rendered campaign to each address
// individually. One bad address does not stop the rest; each outcome
// is recorded on the campaign.
func (s *Service) sendTest(ctx context.Context, c *domain.Campaign, emails []string) (*SendResult, error) {
	if len(emails) == 0 {
		return nil, ErrNoTestRecipients
	}

	html := RenderHTML(c)
	subject := "[TEST] " + c.Subject
	from := fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)

	results := make([]domain.TestSend, 0, len(emails))
	for _, email := range emails {
		ts := domain.TestSend{Email: email, SentAt: time.Now().UTC()}
		_, err := s.provider.SendEmail(ctx, provider.EmailRequest{
			From:    from,
			To:      []string{email},
			Subject: subject,
			HTML:    html,
		})
		if err != nil {
			ts.Error = err.Error()
			logger.Warn("test send failed", "campaign_id", c.ID, "email", email, "error", err.Error())
		} else {
			ts.Success = true
		}
		results = append(results, ts)
		if err := s.campaigns.AppendTestSend(ctx, c.ID, ts); err != nil {
			logger.Error("failed to record test send", "campaign_id", c.ID, "error", err.Error())
		}
	}
	return &SendResult{Test: true, TestResults: results}, nil
}

func (s *Service) sendProduction(ctx context.Context, c *domain.Campaign) (*SendResult, error) {
	if c.AudienceID == "" {
		return nil, ErrNoAudience
	}

	target := domain.CampaignSending
	scheduled := c.ScheduledAt != nil && c.ScheduledAt.After(time.Now())
	if scheduled {
		target = domain.CampaignScheduled
	}

	// Claim the campaign before touching the provider so concurrent
	// send requests cannot double-dispatch.
	ok, err := s.campaigns.TransitionStatus(ctx, c.ID, domain.CampaignDraft, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotDraft
	}

	result, err := s.dispatch(ctx, c, scheduled)
	if err != nil {
		// Give the campaign back to the user for a retry.
		if _, rbErr := s.campaigns.TransitionStatus(ctx, c.ID, target, domain.CampaignDraft); rbErr != nil {
			logger.Error("failed to roll back campaign status", "campaign_id", c.ID, "error", rbErr.Error())
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, c *domain.Campaign, scheduled bool) (*SendResult, error) {
	a, err := s.audiences.Get(ctx, c.AudienceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudience, err)
	}
	// A first-time send may hit an audience that was never synced;
	// create its provider counterpart on the spot. Failure aborts the
	// send the same way it aborts a sync.
	providerAudienceID, err := s.provisioner.EnsureProviderAudience(ctx, a)
	if err != nil {
		return nil, err
	}
	contacts, err := s.audiences.ResolveContacts(ctx, a)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, ErrNoAudience
	}

	broadcast, err := s.provider.CreateBroadcast(ctx, provider.BroadcastRequest{
		AudienceID: providerAudienceID,
		From:       fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail),
		Subject:    c.Subject,
		HTML:       RenderHTML(c),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	var sendReq provider.SendBroadcastRequest
	if scheduled {
		sendReq.ScheduledAt = c.ScheduledAt
	}
	if _, err := s.provider.SendBroadcast(ctx, broadcast.ID, sendReq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	// The campaign stays in sending (or scheduled) here; the broadcast
	// worker flips it to sent once the provider's dispatch time has
	// passed.
	status := domain.CampaignSending
	runAt := time.Now().UTC()
	if scheduled {
		status = domain.CampaignScheduled
		runAt = *c.ScheduledAt
	}
	if err := s.campaigns.RecordSend(ctx, c.ID, broadcast.ID, status, len(contacts), nil); err != nil {
		logger.Error("failed to record send", "campaign_id", c.ID, "error", err.Error())
	}

	if s.jobs != nil {
		payload := map[string]string{"campaign_id": c.ID, "broadcast_id": broadcast.ID}
		if _, err := s.jobs.Enqueue(ctx, domain.JobSendBroadcast, payload, runAt); err != nil {
			logger.Error("failed to enqueue broadcast job", "campaign_id", c.ID, "error", err.Error())
		}
	}

	logger.Info("campaign dispatched",
		"campaign_id", c.ID,
		"broadcast_id", broadcast.ID,
		"status", string(status),
		"recipients", len(contacts))
	return &SendResult{BroadcastID: broadcast.ID, Status: status, Recipients: len(contacts)}, nil
}

// MarkSent promotes a dispatched campaign to sent. Called by the
// broadcast worker once the provider's dispatch time has passed, for
// both immediate (sending) and scheduled campaigns.
func (s *Service) MarkSent(ctx context.Context, id string) error {
	ok, err := s.campaigns.TransitionStatus(ctx, id, domain.CampaignScheduled, domain.CampaignSent)
	if err != nil {
		return err
	}
	if !ok {
		ok, err = s.campaigns.TransitionStatus(ctx, id, domain.CampaignSending, domain.CampaignSent)
		if err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("campaign %s is not awaiting promotion", id)
	}
	now := time.Now().UTC()
	c, err := s.campaigns.Get(ctx, id)
	if err != nil {
		return err
	}
	broadcastID := ""
	if c.ProviderBroadcastID != nil {
		broadcastID = *c.ProviderBroadcastID
	}
	return s.campaigns.RecordSend(ctx, id, broadcastID, domain.CampaignSent, c.RecipientCount, &now)
}

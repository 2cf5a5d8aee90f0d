package audience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/distlock"
	"github.com/voicehouse/outreach/internal/pkg/logger"
	"github.com/voicehouse/outreach/internal/provider"
)

// SyncBatchSize is how many contacts are pushed to the provider
// concurrently. Batches run sequentially to keep pressure on the
// provider API bounded.
const SyncBatchSize = 50

// LockFactory returns a distributed lock for the given key. A nil
// factory disables sync serialization (single-instance deployments).
type LockFactory func(key string) distlock.DistLock

// Synchronizer reconciles an audience's contacts with the provider.
type Synchronizer struct {
	audiences Repository
	resolver  *Service
	provider  EmailProvider
	contacts  ContactRepository
	locks     LockFactory
}

func NewSynchronizer(audiences Repository, contacts ContactRepository, resolver *Service, p EmailProvider, locks LockFactory) *Synchronizer {
	return &Synchronizer{
		audiences: audiences,
		contacts:  contacts,
		resolver:  resolver,
		provider:  p,
		locks:     locks,
	}
}

// SyncAudience pushes every resolved contact of the audience to the
// provider. Contacts that already carry a provider ID are updated in
// place, everything else is created and its provider ID persisted so a
// rerun does not produce duplicates. Partial failures are collected
// per contact; only a missing audience, an unresolvable contact set,
// or a failed provider audience creation abort the run.
func (s *Synchronizer) SyncAudience(ctx context.Context, audienceID string) (*domain.SyncResult, error) {
	a, err := s.audiences.Get(ctx, audienceID)
	if err != nil {
		return nil, err
	}

	if s.locks != nil {
		lock := s.locks("audience-sync:" + audienceID)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !acquired {
			return nil, ErrSyncInProgress
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warn("failed to release sync lock", "audience_id", audienceID, "error", err.Error())
			}
		}()
	}

	providerAudienceID, err := s.EnsureProviderAudience(ctx, a)
	if err != nil {
		return nil, err
	}

	contacts, err := s.resolver.ResolveContacts(ctx, a)
	if err != nil {
		return nil, err
	}

	result := &domain.SyncResult{}
	for start := 0; start < len(contacts); start += SyncBatchSize {
		end := start + SyncBatchSize
		if end > len(contacts) {
			end = len(contacts)
		}
		s.syncBatch(ctx, providerAudienceID, contacts[start:end], result)
	}

	now := time.Now().UTC()
	update := SyncStateUpdate{ContactCount: len(contacts), SyncedAt: now}
	if result.Failed > 0 {
		msg := fmt.Sprintf("Failed to sync %d contacts", result.Failed)
		update.SyncError = &msg
	}
	if err := s.audiences.UpdateSyncState(ctx, audienceID, update); err != nil {
		logger.Error("failed to persist sync state", "audience_id", audienceID, "error", err.Error())
	}

	logger.Info("audience sync finished",
		"audience_id", audienceID,
		"synced", result.Synced,
		"failed", result.Failed)
	return result, nil
}

// EnsureProviderAudience creates the provider-side audience on first
// use and records its ID. Failure here is fatal: without a provider
// audience there is nowhere to put contacts or point a broadcast.
// Production campaign sends share this step.
func (s *Synchronizer) EnsureProviderAudience(ctx context.Context, a *domain.Audience) (string, error) {
	if a.Synced() {
		return *a.ProviderAudienceID, nil
	}
	resp, err := s.provider.CreateAudience(ctx, a.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateAudience, err)
	}
	if err := s.audiences.SetProviderAudienceID(ctx, a.ID, resp.ID); err != nil {
		return "", fmt.Errorf("persist provider audience id: %w", err)
	}
	a.ProviderAudienceID = &resp.ID
	return resp.ID, nil
}

// syncBatch pushes one batch concurrently and folds the outcomes into
// result. It returns only after every contact in the batch settled.
func (s *Synchronizer) syncBatch(ctx context.Context, providerAudienceID string, batch []domain.Contact, result *domain.SyncResult) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := range batch {
		wg.Add(1)
		go func(c domain.Contact) {
			defer wg.Done()
			err := s.syncContact(ctx, providerAudienceID, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, domain.ContactError{
					ContactID: c.ID,
					Email:     c.Email,
					Error:     err.Error(),
				})
				return
			}
			result.Synced++
		}(batch[i])
	}
	wg.Wait()
}

func contactRequest(c domain.Contact) provider.ContactRequest {
	return provider.ContactRequest{
		Email:        c.Email,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Unsubscribed: !c.Subscribed,
	}
}

func (s *Synchronizer) syncContact(ctx context.Context, providerAudienceID string, c domain.Contact) error {
	req := contactRequest(c)
	if c.HasProviderID() {
		_, err := s.provider.UpdateContact(ctx, providerAudienceID, *c.ProviderContactID, req)
		return err
	}
	resp, err := s.provider.CreateContact(ctx, providerAudienceID, req)
	if err != nil {
		return err
	}
	if err := s.contacts.SetProviderContactID(ctx, c.ID, resp.ID); err != nil {
		logger.Warn("failed to persist provider contact id", "contact_id", c.ID, "error", err.Error())
	}
	return nil
}

package audience

import (
	"context"
	"errors"
	"testing"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/distlock"
)

func newSyncFixture(aud *domain.Audience, contacts []domain.Contact, p *fakeProvider) (*Synchronizer, *fakeAudienceRepo, *fakeContactRepo) {
	audRepo := newFakeAudienceRepo(aud)
	contactRepo := &fakeContactRepo{contacts: contacts}
	resolver := NewService(audRepo, contactRepo)
	return NewSynchronizer(audRepo, contactRepo, resolver, p, nil), audRepo, contactRepo
}

func TestSyncAudienceBatches(t *testing.T) {
	contacts := makeContacts(123)
	aud := &domain.Audience{ID: "aud-1", Name: "Commercial VO", Type: domain.AudienceAll}
	p := &fakeProvider{}
	sync, audRepo, _ := newSyncFixture(aud, contacts, p)

	result, err := sync.SyncAudience(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("SyncAudience: %v", err)
	}
	if result.Synced+result.Failed != 123 {
		t.Fatalf("synced(%d)+failed(%d) != 123", result.Synced, result.Failed)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no failures, got %d", result.Failed)
	}
	if p.maxConcurrent > SyncBatchSize {
		t.Fatalf("concurrency %d exceeded batch size %d", p.maxConcurrent, SyncBatchSize)
	}

	state, ok := audRepo.syncState["aud-1"]
	if !ok {
		t.Fatal("sync state was not persisted")
	}
	if state.ContactCount != 123 {
		t.Fatalf("expected contact count 123, got %d", state.ContactCount)
	}
	if state.SyncError != nil {
		t.Fatalf("expected no sync error, got %q", *state.SyncError)
	}
}

func TestSyncAudienceIdempotent(t *testing.T) {
	contacts := makeContacts(60)
	aud := &domain.Audience{ID: "aud-1", Name: "Narration", Type: domain.AudienceAll}
	p := &fakeProvider{}

	audRepo := newFakeAudienceRepo(aud)
	contactRepo := &fakeContactRepo{contacts: contacts}
	resolver := NewService(audRepo, contactRepo)
	sync := NewSynchronizer(audRepo, contactRepo, resolver, p, nil)

	if _, err := sync.SyncAudience(context.Background(), "aud-1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if p.created != 60 {
		t.Fatalf("first sync: expected 60 creates, got %d", p.created)
	}

	// Feed the recorded provider IDs back, as the store would on reload.
	for i := range contactRepo.contacts {
		id, ok := contactRepo.providerIDs[contactRepo.contacts[i].ID]
		if !ok {
			t.Fatalf("provider id not persisted for %s", contactRepo.contacts[i].ID)
		}
		contactRepo.contacts[i].ProviderContactID = &id
	}

	if _, err := sync.SyncAudience(context.Background(), "aud-1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if p.created != 60 {
		t.Fatalf("second sync created contacts again: %d total creates", p.created)
	}
	if p.updated != 60 {
		t.Fatalf("second sync: expected 60 updates, got %d", p.updated)
	}
	if len(p.audienceNames) != 1 {
		t.Fatalf("provider audience created %d times", len(p.audienceNames))
	}
}

func TestSyncAudiencePartialFailure(t *testing.T) {
	contacts := makeContacts(10)
	aud := &domain.Audience{ID: "aud-1", Name: "Promo", Type: domain.AudienceAll}
	p := &fakeProvider{failEmails: map[string]bool{
		contacts[2].Email: true,
		contacts[7].Email: true,
	}}
	sync, audRepo, _ := newSyncFixture(aud, contacts, p)

	result, err := sync.SyncAudience(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("SyncAudience: %v", err)
	}
	if result.Synced != 8 || result.Failed != 2 {
		t.Fatalf("expected 8 synced / 2 failed, got %d / %d", result.Synced, result.Failed)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 contact errors, got %d", len(result.Errors))
	}
	for _, ce := range result.Errors {
		if ce.ContactID == "" || ce.Error == "" {
			t.Fatalf("incomplete contact error: %+v", ce)
		}
	}

	state := audRepo.syncState["aud-1"]
	if state.SyncError == nil || *state.SyncError != "Failed to sync 2 contacts" {
		t.Fatalf("unexpected sync error: %v", state.SyncError)
	}
}

func TestSyncAudienceProviderAudienceFatal(t *testing.T) {
	aud := &domain.Audience{ID: "aud-1", Name: "Promo", Type: domain.AudienceAll}
	p := &fakeProvider{failCreateAud: true}
	sync, _, _ := newSyncFixture(aud, makeContacts(5), p)

	_, err := sync.SyncAudience(context.Background(), "aud-1")
	if !errors.Is(err, ErrCreateAudience) {
		t.Fatalf("expected ErrCreateAudience, got %v", err)
	}
	if p.created != 0 {
		t.Fatalf("no contacts should be pushed after fatal audience failure, got %d", p.created)
	}
}

func TestSyncAudienceNotFound(t *testing.T) {
	sync, _, _ := newSyncFixture(&domain.Audience{ID: "aud-1"}, nil, &fakeProvider{})
	_, err := sync.SyncAudience(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncAudienceDataUnavailable(t *testing.T) {
	aud := &domain.Audience{ID: "aud-1", Name: "Promo", Type: domain.AudienceAll}
	audRepo := newFakeAudienceRepo(aud)
	contactRepo := &fakeContactRepo{failQueries: true}
	resolver := NewService(audRepo, contactRepo)
	sync := NewSynchronizer(audRepo, contactRepo, resolver, &fakeProvider{}, nil)

	_, err := sync.SyncAudience(context.Background(), "aud-1")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

type heldLock struct{ held bool }

func (l *heldLock) Acquire(context.Context) (bool, error) { return !l.held, nil }
func (l *heldLock) Release(context.Context) error         { return nil }

func TestSyncAudienceLocked(t *testing.T) {
	aud := &domain.Audience{ID: "aud-1", Name: "Promo", Type: domain.AudienceAll}
	audRepo := newFakeAudienceRepo(aud)
	contactRepo := &fakeContactRepo{contacts: makeContacts(3)}
	resolver := NewService(audRepo, contactRepo)
	locks := func(string) distlock.DistLock { return &heldLock{held: true} }
	sync := NewSynchronizer(audRepo, contactRepo, resolver, &fakeProvider{}, locks)

	_, err := sync.SyncAudience(context.Background(), "aud-1")
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
}

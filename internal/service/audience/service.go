package audience

import (
	"context"
	"fmt"

	"github.com/voicehouse/outreach/internal/domain"
)

// ResolveLimit caps how many contacts an audience materializes to.
const ResolveLimit = 1000

// Service resolves audience definitions into concrete contact sets.
type Service struct {
	audiences Repository
	contacts  ContactRepository
}

func NewService(audiences Repository, contacts ContactRepository) *Service {
	return &Service{audiences: audiences, contacts: contacts}
}

// Get returns a single audience by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Audience, error) {
	return s.audiences.Get(ctx, id)
}

// List returns all audiences.
func (s *Service) List(ctx context.Context) ([]domain.Audience, error) {
	return s.audiences.List(ctx)
}

// Create persists a new audience and returns its ID.
func (s *Service) Create(ctx context.Context, a *domain.Audience) (string, error) {
	return s.audiences.Create(ctx, a)
}

// Update persists changes to an existing audience.
func (s *Service) Update(ctx context.Context, a *domain.Audience) error {
	return s.audiences.Update(ctx, a)
}

// Delete removes an audience.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.audiences.Delete(ctx, id)
}

// ResolveContacts materializes the audience into at most ResolveLimit
// contacts. Static audiences prefer already-hydrated contacts and fall
// back to a single batched lookup by ID; dynamic audiences evaluate
// their segment rules in the store; "all" returns every subscribed
// contact. Store failures surface as ErrDataUnavailable.
func (s *Service) ResolveContacts(ctx context.Context, a *domain.Audience) ([]domain.Contact, error) {
	switch a.Type {
	case domain.AudienceStatic:
		if len(a.Contacts) > 0 {
			return capContacts(a.Contacts), nil
		}
		if len(a.ContactIDs) == 0 {
			return nil, nil
		}
		contacts, err := s.contacts.GetByIDs(ctx, a.ContactIDs, ResolveLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		return contacts, nil

	case domain.AudienceDynamic:
		contacts, err := s.contacts.FindBySegment(ctx, a.Rules, ResolveLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		return contacts, nil

	case domain.AudienceAll:
		contacts, err := s.contacts.ListSubscribed(ctx, ResolveLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		return contacts, nil

	default:
		return nil, fmt.Errorf("unknown audience type %q", a.Type)
	}
}

func capContacts(contacts []domain.Contact) []domain.Contact {
	if len(contacts) > ResolveLimit {
		return contacts[:ResolveLimit]
	}
	return contacts
}

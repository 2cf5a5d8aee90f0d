package audience

import (
	"context"
	"fmt"

	"github.com/voicehouse/outreach/internal/domain"
)

// ContactStore is the subset of contact persistence the contact
// endpoints need.
type ContactStore interface {
	Get(ctx context.Context, id string) (*domain.Contact, error)
	ListSubscribed(ctx context.Context, limit int) ([]domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) (string, error)
}

// Contacts exposes minimal contact management. Bulk import and
// lifecycle management live with the upstream CRM; this surface exists
// so operators can inspect and seed the contact table.
type Contacts struct {
	store ContactStore
}

func NewContacts(store ContactStore) *Contacts {
	return &Contacts{store: store}
}

func (c *Contacts) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return c.store.Get(ctx, id)
}

// List returns subscribed contacts, bounded the same way audience
// resolution is.
func (c *Contacts) List(ctx context.Context) ([]domain.Contact, error) {
	contacts, err := c.store.ListSubscribed(ctx, ResolveLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return contacts, nil
}

func (c *Contacts) Create(ctx context.Context, contact *domain.Contact) (string, error) {
	if err := contact.Validate(); err != nil {
		return "", err
	}
	return c.store.Create(ctx, contact)
}

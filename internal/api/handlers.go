package api

import (
	"github.com/voicehouse/outreach/internal/health"
	"github.com/voicehouse/outreach/internal/service/audience"
	"github.com/voicehouse/outreach/internal/service/campaign"
)

// Handlers bundles the service dependencies of the HTTP layer.
type Handlers struct {
	audiences *audience.Service
	contacts  *audience.Contacts
	sync      *audience.Synchronizer
	campaigns *campaign.Service
	health    *health.Checker
}

// NewHandlers creates the handler set.
func NewHandlers(audiences *audience.Service, contacts *audience.Contacts, sync *audience.Synchronizer, campaigns *campaign.Service, checker *health.Checker) *Handlers {
	return &Handlers{
		audiences: audiences,
		contacts:  contacts,
		sync:      sync,
		campaigns: campaigns,
		health:    checker,
	}
}

package campaign

import "errors"

var (
	// ErrNotFound is returned when the requested campaign does not exist.
	ErrNotFound = errors.New("campaign not found")

	// ErrNotDraft is returned when a production send targets a campaign
	// that already left draft.
	ErrNotDraft = errors.New("campaign is not in draft status")

	// ErrNoAudience is returned when a production send targets a
	// campaign without an audience, or the audience resolves to zero
	// contacts.
	ErrNoAudience = errors.New("campaign has no sendable audience")

	// ErrNoTestRecipients is returned when a test send carries no
	// recipient addresses.
	ErrNoTestRecipients = errors.New("test send requires at least one recipient")

	// ErrSendFailed wraps provider failures during a production send.
	ErrSendFailed = errors.New("provider send failed")
)

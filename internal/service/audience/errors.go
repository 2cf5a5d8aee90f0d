package audience

import "errors"

var (
	// ErrNotFound is returned when the requested audience does not exist.
	ErrNotFound = errors.New("audience not found")

	// ErrDataUnavailable is returned when the contact store cannot be
	// queried. Callers should treat this as retryable.
	ErrDataUnavailable = errors.New("contact store unavailable")

	// ErrCreateAudience is returned when the provider-side audience
	// cannot be created. The sync is aborted before any contact work.
	ErrCreateAudience = errors.New("failed to create provider audience")

	// ErrSyncInProgress is returned when another sync already holds the
	// lock for the same audience.
	ErrSyncInProgress = errors.New("audience sync already in progress")
)

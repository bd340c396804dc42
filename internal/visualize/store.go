package visualize

import (
	"context"

	"niwaki/internal/imagegen"
)

// Store owns job state. Implementations serialise writes per job and drop
// terminal jobs once the retention window passes.
type Store interface {
	Create(ctx context.Context, prefs Preferences) (Job, error)
	// Get returns ErrJobNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (Job, error)
	// Update is a no-op for unknown ids and returns ErrJobFinished once the
	// job is terminal. Progress never decreases.
	Update(ctx context.Context, id string, patch Patch) error
	// Expire removes the job and every image stored for it.
	Expire(ctx context.Context, id string) error

	// PutImage stores the bytes of one result outside the job record.
	PutImage(ctx context.Context, jobID, resultID string, img imagegen.Image) error
	// Image returns ErrImageNotFound when the job or result is unknown.
	Image(ctx context.Context, jobID, resultID string) (imagegen.Image, error)
}

package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no override is stored for a key.
var ErrFlagNotFound = errors.New("feature flag override not found")

// Repository stores overrides. Keys are validated by the Service, not here.
type Repository interface {
	List(ctx context.Context) ([]Override, error)

	// Save upserts all overrides or none.
	Save(ctx context.Context, overrides []Override) error

	// Delete removes the override so the default applies again.
	Delete(ctx context.Context, key string) error
}

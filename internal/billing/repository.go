package billing

import "context"

// Repository persists entitlements and the activity log.
type Repository interface {
	// GetEntitlement returns the user's entitlement. A user with no row is
	// unpaid; that is not an error.
	GetEntitlement(ctx context.Context, userID string) (*Entitlement, error)

	// Grant marks the user paid at the given tier and appends the activity
	// entry. Granting the same tier twice is a no-op apart from the log.
	Grant(ctx context.Context, userID string, tier Tier, activity Activity) error

	// ListActivity returns the user's activity entries, newest first.
	ListActivity(ctx context.Context, userID string, limit int) ([]*Activity, error)
}

package blacklist

import (
	"context"
	"time"
)

// Store is the narrow persistence surface the registry needs. The root
// module's Store interface satisfies it.
type Store interface {
	BlacklistInsert(ctx context.Context, token string, expiry time.Time) error
	BlacklistContains(ctx context.Context, token string) (bool, error)
	BlacklistDeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Registry owns token revocation state. Tokens are revoked by storing the
// raw token string until its natural expiry passes and the sweep removes
// the entry. Revocation is idempotent.
type Registry struct {
	store Store
	now   func() time.Time
}

// New returns a registry over store.
func New(store Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
	}
}

// Revoke records the token as revoked until expiry. Revoking an already
// revoked token succeeds without change.
func (r *Registry) Revoke(ctx context.Context, token string, expiry time.Time) error {
	return r.store.BlacklistInsert(ctx, token, expiry)
}

// IsRevoked reports whether token is currently revoked. An entry counts as
// revoked until the sweep removes it, even past its expiry.
func (r *Registry) IsRevoked(ctx context.Context, token string) (bool, error) {
	return r.store.BlacklistContains(ctx, token)
}

// Sweep removes entries whose expiry has passed and returns the number
// removed. Entries expiring exactly now are kept for the next run.
func (r *Registry) Sweep(ctx context.Context) (int64, error) {
	return r.store.BlacklistDeleteExpired(ctx, r.now().UTC())
}

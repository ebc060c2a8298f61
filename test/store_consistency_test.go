//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	authcore "github.com/gp-18/authcore"
)

// The tests in this file run the same scenario against every Store backend.
// Anything asserted here is a contract the engine relies on regardless of
// which store it was built with.

func newConformanceIdentity(email string) *authcore.Identity {
	return &authcore.Identity{
		Username:     "conformance",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c29tZXNhbHQ$c29tZWhhc2g",
		Role:         authcore.RoleUser,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func TestStoreConsistencyIdentityLifecycle(t *testing.T) {
	ctx := context.Background()

	for _, backend := range storeBackends(t) {
		t.Run(backend.name, func(t *testing.T) {
			store, cleanup := backend.setup(t)
			defer cleanup()

			identity := newConformanceIdentity("Lifecycle@Example.COM")
			id, err := store.Insert(ctx, identity)
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if id == "" {
				t.Fatalf("Insert returned an empty id")
			}

			byID, err := store.FindByID(ctx, id)
			if err != nil {
				t.Fatalf("FindByID failed: %v", err)
			}
			if byID.Email != identity.Email || byID.Username != identity.Username {
				t.Fatalf("FindByID returned %q/%q, want %q/%q",
					byID.Email, byID.Username, identity.Email, identity.Username)
			}
			if byID.PasswordHash != identity.PasswordHash {
				t.Fatalf("FindByID dropped the password hash")
			}

			// Lookup is case- and whitespace-insensitive on email.
			byEmail, err := store.FindByEmail(ctx, "  lifecycle@example.com ")
			if err != nil {
				t.Fatalf("FindByEmail (normalized) failed: %v", err)
			}
			if byEmail.ID != id {
				t.Fatalf("FindByEmail returned id %q, want %q", byEmail.ID, id)
			}

			// Uniqueness is enforced on the normalized form.
			dup := newConformanceIdentity("LIFECYCLE@example.com")
			if _, err := store.Insert(ctx, dup); !errors.Is(err, authcore.ErrEmailTaken) {
				t.Fatalf("duplicate Insert returned %v, want ErrEmailTaken", err)
			}

			if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, authcore.ErrIdentityNotFound) {
				t.Fatalf("FindByEmail(unknown) returned %v, want ErrIdentityNotFound", err)
			}
			if _, err := store.FindByID(ctx, "no-such-id"); !errors.Is(err, authcore.ErrIdentityNotFound) {
				t.Fatalf("FindByID(unknown) returned %v, want ErrIdentityNotFound", err)
			}
		})
	}
}

func TestStoreConsistencySoftDeletedRemainsVisible(t *testing.T) {
	ctx := context.Background()

	for _, backend := range storeBackends(t) {
		t.Run(backend.name, func(t *testing.T) {
			store, cleanup := backend.setup(t)
			defer cleanup()

			id, err := store.Insert(ctx, newConformanceIdentity("ghost@example.com"))
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			now := time.Now().UTC()
			if _, err := store.Update(ctx, id, func(i *authcore.Identity) error {
				i.Deleted = true
				i.DeletedAt = &now
				return nil
			}); err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			// Soft-deleted identities stay findable; the engine decides what a
			// deleted record means, the store only persists the flag.
			got, err := store.FindByEmail(ctx, "ghost@example.com")
			if err != nil {
				t.Fatalf("FindByEmail after soft delete failed: %v", err)
			}
			if !got.Deleted {
				t.Fatalf("Deleted flag not persisted")
			}

			// The address stays reserved too.
			if _, err := store.Insert(ctx, newConformanceIdentity("ghost@example.com")); !errors.Is(err, authcore.ErrEmailTaken) {
				t.Fatalf("Insert over soft-deleted returned %v, want ErrEmailTaken", err)
			}
		})
	}
}

func TestStoreConsistencyUpdateSemantics(t *testing.T) {
	ctx := context.Background()
	errMutate := errors.New("mutate rejected")

	for _, backend := range storeBackends(t) {
		t.Run(backend.name, func(t *testing.T) {
			store, cleanup := backend.setup(t)
			defer cleanup()

			id, err := store.Insert(ctx, newConformanceIdentity("update-a@example.com"))
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			otherID, err := store.Insert(ctx, newConformanceIdentity("update-b@example.com"))
			if err != nil {
				t.Fatalf("Insert (second) failed: %v", err)
			}

			updated, err := store.Update(ctx, id, func(i *authcore.Identity) error {
				i.Username = "renamed"
				i.Email = "Update-Moved@example.com"
				return nil
			})
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if updated.Username != "renamed" {
				t.Fatalf("Update returned username %q, want %q", updated.Username, "renamed")
			}

			if got, err := store.FindByEmail(ctx, "update-moved@example.com"); err != nil || got.ID != id {
				t.Fatalf("FindByEmail(new address) = %v, %v; want id %q", got, err, id)
			}

			// The old address is released by the move.
			if _, err := store.Insert(ctx, newConformanceIdentity("update-a@example.com")); err != nil {
				t.Fatalf("Insert on released address failed: %v", err)
			}

			// Moving onto someone else's address is rejected.
			if _, err := store.Update(ctx, otherID, func(i *authcore.Identity) error {
				i.Email = "update-moved@example.com"
				return nil
			}); !errors.Is(err, authcore.ErrEmailTaken) {
				t.Fatalf("Update onto taken address returned %v, want ErrEmailTaken", err)
			}

			// A mutate error aborts the update and comes back unchanged.
			if _, err := store.Update(ctx, id, func(i *authcore.Identity) error {
				i.Username = "must-not-stick"
				return errMutate
			}); !errors.Is(err, errMutate) {
				t.Fatalf("Update returned %v, want the mutate error", err)
			}
			got, err := store.FindByID(ctx, id)
			if err != nil {
				t.Fatalf("FindByID after aborted update failed: %v", err)
			}
			if got.Username != "renamed" {
				t.Fatalf("aborted update leaked: username %q", got.Username)
			}

			if _, err := store.Update(ctx, "no-such-id", func(i *authcore.Identity) error {
				return nil
			}); !errors.Is(err, authcore.ErrIdentityNotFound) {
				t.Fatalf("Update(unknown) returned %v, want ErrIdentityNotFound", err)
			}
		})
	}
}

func TestStoreConsistencyBlacklist(t *testing.T) {
	ctx := context.Background()

	for _, backend := range storeBackends(t) {
		t.Run(backend.name, func(t *testing.T) {
			store, cleanup := backend.setup(t)
			defer cleanup()

			now := time.Now().UTC()
			expired := "token-expired"
			live := "token-live"

			if err := store.BlacklistInsert(ctx, expired, now.Add(-time.Hour)); err != nil {
				t.Fatalf("BlacklistInsert (expired) failed: %v", err)
			}
			if err := store.BlacklistInsert(ctx, live, now.Add(time.Hour)); err != nil {
				t.Fatalf("BlacklistInsert (live) failed: %v", err)
			}
			// Re-inserting the same token only refreshes its expiry.
			if err := store.BlacklistInsert(ctx, live, now.Add(2*time.Hour)); err != nil {
				t.Fatalf("BlacklistInsert (repeat) failed: %v", err)
			}

			for _, token := range []string{expired, live} {
				revoked, err := store.BlacklistContains(ctx, token)
				if err != nil {
					t.Fatalf("BlacklistContains(%q) failed: %v", token, err)
				}
				if !revoked {
					t.Fatalf("BlacklistContains(%q) = false before sweep", token)
				}
			}
			if revoked, err := store.BlacklistContains(ctx, "never-seen"); err != nil || revoked {
				t.Fatalf("BlacklistContains(unknown) = %v, %v; want false, nil", revoked, err)
			}

			purged, err := store.BlacklistDeleteExpired(ctx, now)
			if err != nil {
				t.Fatalf("BlacklistDeleteExpired failed: %v", err)
			}
			if purged != 1 {
				t.Fatalf("BlacklistDeleteExpired purged %d entries, want 1", purged)
			}

			if revoked, _ := store.BlacklistContains(ctx, expired); revoked {
				t.Fatalf("expired token still revoked after sweep")
			}
			if revoked, _ := store.BlacklistContains(ctx, live); !revoked {
				t.Fatalf("live token swept early")
			}
		})
	}
}

func TestStoreConsistencyPing(t *testing.T) {
	ctx := context.Background()

	for _, backend := range storeBackends(t) {
		t.Run(backend.name, func(t *testing.T) {
			store, cleanup := backend.setup(t)
			defer cleanup()

			if err := store.Ping(ctx); err != nil {
				t.Fatalf("Ping failed: %v", err)
			}
		})
	}
}

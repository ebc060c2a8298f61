package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gp-18/authcore"
)

func newIdentity(email string) *authcore.Identity {
	now := time.Now().UTC()
	return &authcore.Identity{
		Username:     "tester",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         authcore.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestInsertAssignsIDAndFindRoundTrip(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	identity := newIdentity("alice@example.com")
	id, err := s.Insert(ctx, identity)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if identity.ID != id {
		t.Fatalf("expected id written back to argument, got %q vs %q", identity.ID, id)
	}

	byID, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", byID.Email)
	}

	byEmail, err := s.FindByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("FindByEmail with different case failed: %v", err)
	}
	if byEmail.ID != id {
		t.Fatalf("expected id %q, got %q", id, byEmail.ID)
	}
}

func TestInsertDuplicateEmailFails(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Insert(ctx, newIdentity("alice@example.com")); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	_, err := s.Insert(ctx, newIdentity("Alice@Example.com"))
	if !errors.Is(err, authcore.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, authcore.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
	if _, err := s.FindByID(ctx, "nope"); !errors.Is(err, authcore.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestFindReturnsCopy(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Insert(ctx, newIdentity("alice@example.com"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	first, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	first.Email = "mutated@example.com"

	second, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if second.Email != "alice@example.com" {
		t.Fatal("mutating a returned identity must not affect the stored record")
	}
}

func TestUpdateAppliesMutationAtomically(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Insert(ctx, newIdentity("alice@example.com"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = s.Update(ctx, id, func(identity *authcore.Identity) error {
				if identity.Username == "" {
					identity.Username = "w"
				} else {
					identity.Username += "w"
				}
				return nil
			})
		}()
	}
	wg.Wait()

	updated, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	// Each mutation appended one "w" to the initial "tester".
	if len(updated.Username) != len("tester")+workers {
		t.Fatalf("lost updates: username %q", updated.Username)
	}
}

func TestUpdateMutationErrorAborts(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Insert(ctx, newIdentity("alice@example.com"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	sentinel := errors.New("abort")
	_, err = s.Update(ctx, id, func(identity *authcore.Identity) error {
		identity.Username = "changed"
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected mutation error returned, got %v", err)
	}

	stored, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Username != "tester" {
		t.Fatalf("aborted update leaked changes: %q", stored.Username)
	}
}

func TestUpdateReindexesChangedEmail(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Insert(ctx, newIdentity("old@example.com"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, err := s.Update(ctx, id, func(identity *authcore.Identity) error {
		identity.Email = "new@example.com"
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := s.FindByEmail(ctx, "old@example.com"); !errors.Is(err, authcore.ErrIdentityNotFound) {
		t.Fatalf("old email still resolves: %v", err)
	}
	found, err := s.FindByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("new email does not resolve: %v", err)
	}
	if found.ID != id {
		t.Fatalf("expected id %q, got %q", id, found.ID)
	}
}

func TestBlacklistLifecycle(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.BlacklistInsert(ctx, "tok-live", now.Add(time.Hour)); err != nil {
		t.Fatalf("BlacklistInsert failed: %v", err)
	}
	if err := s.BlacklistInsert(ctx, "tok-dead", now.Add(-time.Hour)); err != nil {
		t.Fatalf("BlacklistInsert failed: %v", err)
	}
	// Idempotent re-insert.
	if err := s.BlacklistInsert(ctx, "tok-live", now.Add(time.Hour)); err != nil {
		t.Fatalf("repeat BlacklistInsert failed: %v", err)
	}

	for _, token := range []string{"tok-live", "tok-dead"} {
		revoked, err := s.BlacklistContains(ctx, token)
		if err != nil {
			t.Fatalf("BlacklistContains failed: %v", err)
		}
		if !revoked {
			t.Fatalf("expected %q to be revoked", token)
		}
	}

	purged, err := s.BlacklistDeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("BlacklistDeleteExpired failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged entry, got %d", purged)
	}

	revoked, err := s.BlacklistContains(ctx, "tok-dead")
	if err != nil {
		t.Fatalf("BlacklistContains failed: %v", err)
	}
	if revoked {
		t.Fatal("expired entry should have been purged")
	}
	revoked, err = s.BlacklistContains(ctx, "tok-live")
	if err != nil {
		t.Fatalf("BlacklistContains failed: %v", err)
	}
	if !revoked {
		t.Fatal("live entry must survive the sweep")
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, authcore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Ping, got %v", err)
	}
	if _, err := s.Insert(ctx, newIdentity("late@example.com")); !errors.Is(err, authcore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Insert, got %v", err)
	}
	if _, err := s.FindByEmail(ctx, "late@example.com"); !errors.Is(err, authcore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from FindByEmail, got %v", err)
	}
}

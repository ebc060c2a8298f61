package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gp-18/authcore"
)

// Store is an in-memory implementation of [authcore.Store] backed by
// mutex-guarded maps. It is the default store for tests, examples, and
// single-process embedding.
type Store struct {
	mu        sync.RWMutex
	byID      map[string]*authcore.Identity
	byEmail   map[string]string
	blacklist map[string]time.Time
	closed    bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:      make(map[string]*authcore.Identity),
		byEmail:   make(map[string]string),
		blacklist: make(map[string]time.Time),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail returns the identity registered under email, including
// soft-deleted records.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, authcore.ErrStoreUnavailable
	}

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	identity, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

// FindByID returns the identity with the given id, including soft-deleted
// records.
func (s *Store) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, authcore.ErrStoreUnavailable
	}

	identity, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

// Insert stores a new identity. An empty ID is assigned a fresh UUID; the
// assigned id is written back to the argument and returned. Email uniqueness
// is enforced across active and soft-deleted records.
func (s *Store) Insert(ctx context.Context, identity *authcore.Identity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", authcore.ErrStoreUnavailable
	}

	email := normalizeEmail(identity.Email)
	if _, exists := s.byEmail[email]; exists {
		return "", authcore.ErrEmailTaken
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if _, exists := s.byID[identity.ID]; exists {
		return "", authcore.ErrEmailTaken
	}

	s.byID[identity.ID] = identity.Clone()
	s.byEmail[email] = identity.ID

	return identity.ID, nil
}

// Update applies mutate to the stored identity under the write lock and
// persists the result, returning a copy of the updated record. An error from
// mutate aborts the update and is returned unchanged.
func (s *Store) Update(ctx context.Context, id string, mutate func(*authcore.Identity) error) (*authcore.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, authcore.ErrStoreUnavailable
	}

	current, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}

	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	updated.ID = id

	oldEmail := normalizeEmail(current.Email)
	newEmail := normalizeEmail(updated.Email)
	if newEmail != oldEmail {
		if _, exists := s.byEmail[newEmail]; exists {
			return nil, authcore.ErrEmailTaken
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = id
	}

	s.byID[id] = updated

	return updated.Clone(), nil
}

// BlacklistInsert records a revoked token until expiry. Re-inserting the
// same token is a no-op beyond refreshing its expiry.
func (s *Store) BlacklistInsert(ctx context.Context, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return authcore.ErrStoreUnavailable
	}

	s.blacklist[token] = expiry
	return nil
}

// BlacklistContains reports whether token has been revoked.
func (s *Store) BlacklistContains(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, authcore.ErrStoreUnavailable
	}

	_, ok := s.blacklist[token]
	return ok, nil
}

// BlacklistDeleteExpired removes entries whose expiry is strictly before the
// given time and returns the number removed.
func (s *Store) BlacklistDeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, authcore.ErrStoreUnavailable
	}

	var purged int64
	for token, expiry := range s.blacklist {
		if expiry.Before(before) {
			delete(s.blacklist, token)
			purged++
		}
	}
	return purged, nil
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return authcore.ErrStoreUnavailable
	}
	return nil
}

// Close marks the store unusable. All subsequent operations fail with
// [authcore.ErrStoreUnavailable].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.byID = nil
	s.byEmail = nil
	s.blacklist = nil
	return nil
}

package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gp-18/authcore"
)

const (
	userKeyPrefix      = "user:id:"
	emailKeyPrefix     = "user:email:"
	blacklistKeyPrefix = "blacklist:token:"
	blacklistIndexKey  = "blacklist:expiry"

	maxTxRetries = 4
)

// userDocument is the persisted form of an identity. The public Identity
// type hides PasswordHash and TOTPSecret from JSON, so persistence uses its
// own field set.
type userDocument struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         string     `json:"role"`
	Deleted      bool       `json:"is_deleted"`
	Active       bool       `json:"is_active"`
	TOTPEnabled  bool       `json:"totp_enabled"`
	TOTPSecret   string     `json:"totp_secret,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedBy    string     `json:"deleted_by,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func toDocument(identity *authcore.Identity) *userDocument {
	return &userDocument{
		ID:           identity.ID,
		Username:     identity.Username,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Role:         identity.Role,
		Deleted:      identity.Deleted,
		Active:       identity.Active,
		TOTPEnabled:  identity.TOTPEnabled,
		TOTPSecret:   identity.TOTPSecret,
		CreatedBy:    identity.CreatedBy,
		CreatedAt:    identity.CreatedAt,
		UpdatedBy:    identity.UpdatedBy,
		UpdatedAt:    identity.UpdatedAt,
		DeletedBy:    identity.DeletedBy,
		DeletedAt:    identity.DeletedAt,
	}
}

func (d *userDocument) toIdentity() *authcore.Identity {
	identity := &authcore.Identity{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Deleted:      d.Deleted,
		Active:       d.Active,
		TOTPEnabled:  d.TOTPEnabled,
		TOTPSecret:   d.TOTPSecret,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedBy:    d.UpdatedBy,
		UpdatedAt:    d.UpdatedAt,
		DeletedBy:    d.DeletedBy,
	}
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		identity.DeletedAt = &t
	}
	return identity
}

// Store implements [authcore.Store] on a Redis backend. Identities are JSON
// documents with a lowercase-email index; the blacklist keeps one key per
// revoked token plus a sorted-set expiry index used by the sweep.
type Store struct {
	redis redis.UniversalClient
}

// New returns a store using client. The store takes ownership of the client;
// Close closes it.
func New(client redis.UniversalClient) *Store {
	return &Store{
		redis: client,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + normalizeEmail(email)
}

func blacklistKey(token string) string {
	return blacklistKeyPrefix + token
}

// FindByEmail resolves the email index and loads the identity document,
// including soft-deleted records.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.Identity, error) {
	id, err := s.redis.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads the identity document for id, including soft-deleted
// records.
func (s *Store) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	data, err := s.redis.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}

	var doc userDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode user %s: %v", authcore.ErrStoreUnavailable, id, err)
	}
	return doc.toIdentity(), nil
}

// Insert stores a new identity document and claims its email in the index.
// An empty ID is assigned a fresh UUID and written back to the argument.
func (s *Store) Insert(ctx context.Context, identity *authcore.Identity) (string, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	eKey := emailKey(identity.Email)

	data, err := json.Marshal(toDocument(identity))
	if err != nil {
		return "", fmt.Errorf("%w: encode user: %v", authcore.ErrStoreUnavailable, err)
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			_, err := tx.Get(ctx, eKey).Result()
			if err == nil {
				return authcore.ErrEmailTaken
			}
			if !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, eKey, identity.ID, 0)
				pipe.Set(ctx, userKey(identity.ID), data, 0)
				return nil
			})
			return err
		}, eKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, authcore.ErrEmailTaken) {
				return "", err
			}
			return "", fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
		}
		return identity.ID, nil
	}

	return "", fmt.Errorf("%w: insert contention for %s", authcore.ErrStoreUnavailable, normalizeEmail(identity.Email))
}

// Update performs an optimistic read-modify-write of the identity document.
// The mutation runs against a decoded copy; an error from mutate aborts the
// transaction and is returned unchanged. Email changes are re-indexed.
func (s *Store) Update(ctx context.Context, id string, mutate func(*authcore.Identity) error) (*authcore.Identity, error) {
	uKey := userKey(id)

	for i := 0; i < maxTxRetries; i++ {
		var updated *authcore.Identity

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, uKey).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return authcore.ErrIdentityNotFound
				}
				return err
			}

			var doc userDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decode user %s: %v", id, err)
			}

			identity := doc.toIdentity()
			oldEmail := normalizeEmail(identity.Email)

			if err := mutate(identity); err != nil {
				return &mutationError{err: err}
			}
			identity.ID = id
			newEmail := normalizeEmail(identity.Email)

			if newEmail != oldEmail {
				owner, err := tx.Get(ctx, emailKey(newEmail)).Result()
				if err != nil && !errors.Is(err, redis.Nil) {
					return err
				}
				if err == nil && owner != id {
					return authcore.ErrEmailTaken
				}
			}

			encoded, err := json.Marshal(toDocument(identity))
			if err != nil {
				return fmt.Errorf("encode user %s: %v", id, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, uKey, encoded, 0)
				if newEmail != oldEmail {
					pipe.Del(ctx, emailKey(oldEmail))
					pipe.Set(ctx, emailKey(newEmail), id, 0)
				}
				return nil
			})
			if err != nil {
				return err
			}

			updated = identity
			return nil
		}, uKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			var me *mutationError
			switch {
			case errors.As(err, &me):
				return nil, me.err
			case errors.Is(err, authcore.ErrIdentityNotFound),
				errors.Is(err, authcore.ErrEmailTaken):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
			}
		}
		return updated, nil
	}

	return nil, fmt.Errorf("%w: update contention for %s", authcore.ErrStoreUnavailable, id)
}

// mutationError marks an error raised by the caller's mutate callback so it
// can be unwrapped past the transaction machinery and returned unchanged.
type mutationError struct {
	err error
}

func (e *mutationError) Error() string {
	return e.err.Error()
}

// BlacklistInsert records a revoked token. Entries carry no Redis TTL; the
// sweep owns removal so revocation remains observable until then.
func (s *Store) BlacklistInsert(ctx context.Context, token string, expiry time.Time) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, blacklistKey(token), "1", 0)
		pipe.ZAdd(ctx, blacklistIndexKey, redis.Z{
			Score:  float64(expiry.Unix()),
			Member: token,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return nil
}

// BlacklistContains reports whether token has been revoked.
func (s *Store) BlacklistContains(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// BlacklistDeleteExpired removes entries whose expiry is strictly before
// the given time and returns the number removed.
func (s *Store) BlacklistDeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	max := "(" + strconv.FormatInt(before.Unix(), 10)

	tokens, err := s.redis.ZRangeByScore(ctx, blacklistIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, token := range tokens {
			pipe.Del(ctx, blacklistKey(token))
		}
		pipe.ZRemRangeByScore(ctx, blacklistIndexKey, "-inf", max)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}

	return int64(len(tokens)), nil
}

// Ping checks connectivity to the backend.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.redis.Close()
}

package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/gp-18/authcore/password"
)

// Defaults applied by [EnsureAdmin] when the seed leaves fields empty.
const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// EnsureAdmin seeds the store with an admin identity when none exists
// under the seed email. The call is idempotent: an existing identity,
// including one racing in from another replica, is left untouched. The
// seed password is hashed but deliberately not checked against the
// password policy, matching the operational bootstrap flow.
//
//	Docs: docs/engine.md
func EnsureAdmin(ctx context.Context, store Store, hasher *password.Argon2, seed BootstrapAdmin) error {
	if store == nil || hasher == nil {
		return ErrEngineNotReady
	}

	if seed.Username == "" {
		seed.Username = defaultAdminUsername
	}
	if seed.Email == "" {
		seed.Email = defaultAdminEmail
	}
	if seed.Password == "" {
		seed.Password = defaultAdminPassword
	}

	_, err := store.FindByEmail(ctx, seed.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return err
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	identity := &Identity{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Active:       true,
		CreatedBy:    seed.Email,
		CreatedAt:    now,
		UpdatedBy:    seed.Email,
		UpdatedAt:    now,
	}

	if _, err := store.Insert(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return err
	}

	return nil
}

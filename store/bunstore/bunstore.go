package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/gp-18/authcore"
)

// identityRow is the Bun model for identities. Soft-delete is a plain
// column pair because delete semantics live in the engine, not the store.
type identityRow struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`

	ID           string     `bun:"id,pk"`
	Username     string     `bun:"username"`
	Email        string     `bun:"email,notnull"`
	EmailLower   string     `bun:"email_lower,notnull,unique"`
	PasswordHash string     `bun:"password_hash,notnull"`
	Role         string     `bun:"role,notnull"`
	Deleted      bool       `bun:"is_deleted,notnull"`
	Active       bool       `bun:"is_active,notnull"`
	TOTPEnabled  bool       `bun:"totp_enabled,notnull"`
	TOTPSecret   string     `bun:"totp_secret"`
	CreatedBy    string     `bun:"created_by"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	UpdatedBy    string     `bun:"updated_by"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull"`
	DeletedBy    string     `bun:"deleted_by"`
	DeletedAt    *time.Time `bun:"deleted_at"`
}

// blacklistRow is the Bun model for revoked tokens awaiting sweep.
type blacklistRow struct {
	bun.BaseModel `bun:"table:token_blacklist,alias:tb"`

	Token  string    `bun:"token,pk"`
	Expiry time.Time `bun:"expiry,notnull"`
}

func fromIdentity(identity *authcore.Identity) *identityRow {
	return &identityRow{
		ID:           identity.ID,
		Username:     identity.Username,
		Email:        identity.Email,
		EmailLower:   normalizeEmail(identity.Email),
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

func (r *identityRow) toIdentity() *authcore.Identity {
	identity := &authcore.Identity{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Deleted:      r.Deleted,
		Active:       r.Active,
		TOTPEnabled:  r.TOTPEnabled,
		TOTPSecret:   r.TOTPSecret,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedBy:    r.UpdatedBy,
		UpdatedAt:    r.UpdatedAt,
		DeletedBy:    r.DeletedBy,
	}
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		identity.DeletedAt = &t
	}
	return identity
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store implements [authcore.Store] on a SQL database through Bun.
type Store struct {
	db *bun.DB
}

// New returns a store over an existing Bun handle. The caller keeps
// ownership of schema migration; run [Store.Migrate] before first use.
func New(db *bun.DB) *Store {
	return &Store{
		db: db,
	}
}

// Open opens a SQLite database via the pure-Go shim driver and returns a
// migrated store. Use ":memory:" (or "file::memory:?cache=shared") for an
// ephemeral database.
func Open(dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", authcore.ErrStoreUnavailable, err)
	}
	if strings.Contains(dsn, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}

	store := New(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the identity and blacklist tables when absent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*identityRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: migrate identities: %v", authcore.ErrStoreUnavailable, err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*blacklistRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: migrate token_blacklist: %v", authcore.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByEmail returns the identity registered under email, including
// soft-deleted records.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.Identity, error) {
	var row identityRow
	err := s.db.NewSelect().
		Model(&row).
		Where("email_lower = ?", normalizeEmail(email)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return row.toIdentity(), nil
}

// FindByID returns the identity with the given id, including soft-deleted
// records.
func (s *Store) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	var row identityRow
	err := s.db.NewSelect().
		Model(&row).
		Where("idn.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return row.toIdentity(), nil
}

// Insert stores a new identity row. An empty ID is assigned a fresh UUID
// and written back to the argument.
func (s *Store) Insert(ctx context.Context, identity *authcore.Identity) (string, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	row := fromIdentity(identity)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*identityRow)(nil)).
			Where("email_lower = ?", row.EmailLower).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return authcore.ErrEmailTaken
		}

		_, err = tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, authcore.ErrEmailTaken) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}

	return identity.ID, nil
}

// Update loads the row, applies mutate, and writes the result back inside a
// transaction. An error from mutate rolls the transaction back and is
// returned unchanged.
func (s *Store) Update(ctx context.Context, id string, mutate func(*authcore.Identity) error) (*authcore.Identity, error) {
	var updated *authcore.Identity

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row identityRow
		err := tx.NewSelect().
			Model(&row).
			Where("idn.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return authcore.ErrIdentityNotFound
			}
			return err
		}

		identity := row.toIdentity()
		oldEmail := normalizeEmail(identity.Email)

		if err := mutate(identity); err != nil {
			return &mutationError{err: err}
		}
		identity.ID = id
		newEmail := normalizeEmail(identity.Email)

		if newEmail != oldEmail {
			taken, err := tx.NewSelect().
				Model((*identityRow)(nil)).
				Where("email_lower = ? AND id != ?", newEmail, id).
				Exists(ctx)
			if err != nil {
				return err
			}
			if taken {
				return authcore.ErrEmailTaken
			}
		}

		if _, err := tx.NewUpdate().
			Model(fromIdentity(identity)).
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		updated = identity
		return nil
	})
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

// BlacklistInsert records a revoked token; re-inserting is a no-op.
func (s *Store) BlacklistInsert(ctx context.Context, token string, expiry time.Time) error {
	_, err := s.db.NewInsert().
		Model(&blacklistRow{Token: token, Expiry: expiry}).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return nil
}

// BlacklistContains reports whether token has been revoked.
func (s *Store) BlacklistContains(ctx context.Context, token string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*blacklistRow)(nil)).
		Where("token = ?", token).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return exists, nil
}

// BlacklistDeleteExpired removes rows whose expiry is strictly before the
// given time and returns the number removed.
func (s *Store) BlacklistDeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*blacklistRow)(nil)).
		Where("expiry < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return purged, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// mutationError marks an error raised by the caller's mutate callback so it
// can be unwrapped past the transaction machinery and returned unchanged.
type mutationError struct {
	err error
}

func (e *mutationError) Error() string {
	return e.err.Error()
}

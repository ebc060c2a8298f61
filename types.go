package authcore

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/gp-18/authcore/jwt"
)

// Role values assigned to identities. Self-registration always produces
// [RoleUser]; [RoleAdmin] is granted by an existing admin or the bootstrap
// seed.
const (
	// RoleUser is an exported constant or variable used by the authentication engine.
	RoleUser = "user"
	// RoleAdmin is an exported constant or variable used by the authentication engine.
	RoleAdmin = "admin"
)

// Identity is the full account record held by a [Store]. PasswordHash and
// TOTPSecret never serialize to JSON; results returned from engine
// operations are additionally passed through [Identity.Sanitized].
//
//	Docs: docs/engine.md
type Identity struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Deleted      bool       `json:"is_deleted"`
	Active       bool       `json:"is_active"`
	TOTPEnabled  bool       `json:"is_2FA"`
	TOTPSecret   string     `json:"-"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedBy    string     `json:"deleted_by,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Clone returns a deep copy of the identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.DeletedAt != nil {
		t := *i.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

// Sanitized returns a copy with credential material cleared. Engine
// operations return sanitized identities so callers can hand them to
// serialization layers directly.
func (i *Identity) Sanitized() *Identity {
	out := i.Clone()
	if out == nil {
		return nil
	}
	out.PasswordHash = ""
	out.TOTPSecret = ""
	return out
}

// Claims carries the verified token claims returned by [Engine.Validate]
// and injected into request contexts by the middleware package.
//
//	Docs: docs/jwt.md
type Claims = jwt.Claims

// Store is the persistence interface that callers must implement to
// integrate authcore with their database. It covers identity lookup,
// creation, atomic updates, and the token blacklist consulted by
// [Engine.Validate].
//
//	Docs: docs/engine.md, docs/stores.md
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	Insert(ctx context.Context, identity *Identity) (string, error)
	Update(ctx context.Context, id string, mutate func(*Identity) error) (*Identity, error)

	BlacklistInsert(ctx context.Context, token string, expiry time.Time) error
	BlacklistContains(ctx context.Context, token string) (bool, error)
	BlacklistDeleteExpired(ctx context.Context, before time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Mailer delivers operational email. The engine treats a send failure on
// forgot-password as an operation failure since the email carries the
// reset link.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// Notifier delivers outbound event notifications. Notifications are
// dispatched asynchronously; a failing notifier is logged and counted but
// never fails the triggering operation.
//
//	Docs: docs/audit.md
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{}) error
}

// RegisterInput is the input for [Engine.Register]. Actor identifies the
// authenticated caller when an admin creates an account on someone's
// behalf; it is nil for self-registration, in which case Role is forced
// to [RoleUser].
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Actor    *Claims
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

// LoginInput is the input for [Engine.Login].
type LoginInput struct {
	Email    string
	Password string
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l LoginInput) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
}

// LoginResult is returned by [Engine.Login]. User is sanitized.
type LoginResult struct {
	User         *Identity `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// RefreshResult is returned by [Engine.Refresh].
type RefreshResult struct {
	AccessToken string `json:"access_token"`
}

// TOTPSetup is returned by [Engine.SetupTOTP]. ManualCode is the
// base32-encoded secret for manual authenticator entry; QRCodeURL is a
// data: URI carrying the provisioning QR image.
type TOTPSetup struct {
	ManualCode string `json:"manual_code"`
	OTPAuthURI string `json:"otpauth_uri"`
	QRCodeURL  string `json:"qr_code_url"`
}

// BootstrapAdmin describes the seed account created by [EnsureAdmin] when
// no identity exists under the seed email.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

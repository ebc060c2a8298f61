package authcore

import (
	"errors"

	"github.com/gp-18/authcore/password"
)

var (
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrMissingFields is an exported constant or variable used by the authentication engine.
	ErrMissingFields = errors.New("missing required fields")
	// ErrCredentialsRequired is an exported constant or variable used by the authentication engine.
	ErrCredentialsRequired = errors.New("email and password are required")
	// ErrEmailRequired is an exported constant or variable used by the authentication engine.
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordRequired is an exported constant or variable used by the authentication engine.
	ErrPasswordRequired = errors.New("new password is required")
	// ErrRefreshRequired is an exported constant or variable used by the authentication engine.
	ErrRefreshRequired = errors.New("refresh token is required")
	// ErrEmailTaken is an exported constant or variable used by the authentication engine.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrEmailTakenDeleted is an exported constant or variable used by the authentication engine.
	ErrEmailTakenDeleted = errors.New("user with this email already exists but is deleted")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeleted is an exported constant or variable used by the authentication engine.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrIdentityNotFound is an exported constant or variable used by the authentication engine.
	ErrIdentityNotFound = errors.New("user not found")
	// ErrTokenMissing is an exported constant or variable used by the authentication engine.
	ErrTokenMissing = errors.New("authorization token is missing")
	// ErrTokenRevoked is an exported constant or variable used by the authentication engine.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrTokenExpired is an exported constant or variable used by the authentication engine.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshExpired is an exported constant or variable used by the authentication engine.
	ErrRefreshExpired = errors.New("refresh token has expired")
	// ErrRefreshInvalid is an exported constant or variable used by the authentication engine.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrResetExpired is an exported constant or variable used by the authentication engine.
	ErrResetExpired = errors.New("reset token has expired")
	// ErrResetInvalid is an exported constant or variable used by the authentication engine.
	ErrResetInvalid = errors.New("invalid reset token")
	// ErrLogoutFailed is an exported constant or variable used by the authentication engine.
	ErrLogoutFailed = errors.New("logout failed")
	// ErrPermissionDenied is an exported constant or variable used by the authentication engine.
	ErrPermissionDenied = errors.New("admin access required")
	// ErrTOTPNotConfigured is an exported constant or variable used by the authentication engine.
	ErrTOTPNotConfigured = errors.New("totp not configured")
	// ErrTOTPCodeRequired is an exported constant or variable used by the authentication engine.
	ErrTOTPCodeRequired = errors.New("totp code is required")
	// ErrTOTPInvalid is an exported constant or variable used by the authentication engine.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrRateLimited is an exported constant or variable used by the authentication engine.
	ErrRateLimited = errors.New("too many attempts, try again later")
	// ErrMailDelivery is an exported constant or variable used by the authentication engine.
	ErrMailDelivery = errors.New("failed to send email")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Kind classifies an operation failure for transport layers. Every engine
// error maps to exactly one kind; unknown errors classify as
// [KindDependency].
type Kind uint8

const (
	// KindValidation is an exported constant or variable used by the authentication engine.
	KindValidation Kind = iota
	// KindAuthentication is an exported constant or variable used by the authentication engine.
	KindAuthentication
	// KindAuthorization is an exported constant or variable used by the authentication engine.
	KindAuthorization
	// KindNotFound is an exported constant or variable used by the authentication engine.
	KindNotFound
	// KindConflict is an exported constant or variable used by the authentication engine.
	KindConflict
	// KindRateLimited is an exported constant or variable used by the authentication engine.
	KindRateLimited
	// KindDependency is an exported constant or variable used by the authentication engine.
	KindDependency
)

// HTTPStatus describes the httpstatus operation and its observable behavior.
//
// HTTPStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return 400
	case KindAuthentication:
		return 401
	case KindAuthorization:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		// Duplicate registrations report 400, matching the engine's
		// original observable contract.
		return 400
	case KindRateLimited:
		return 429
	default:
		return 500
	}
}

// KindOf describes the kindof operation and its observable behavior.
//
// KindOf does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrCredentialsRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrRefreshRequired),
		errors.Is(err, ErrTOTPNotConfigured),
		errors.Is(err, ErrTOTPCodeRequired),
		errors.Is(err, password.ErrPolicy):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenMissing),
		errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrRefreshExpired),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrResetExpired),
		errors.Is(err, ErrResetInvalid),
		errors.Is(err, ErrTOTPInvalid):
		return KindAuthentication
	case errors.Is(err, ErrAccountDeleted),
		errors.Is(err, ErrPermissionDenied):
		return KindAuthorization
	case errors.Is(err, ErrIdentityNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrEmailTakenDeleted):
		return KindConflict
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindDependency
	}
}

// Message describes the message operation and its observable behavior.
//
// Message does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Missing required fields"
	case errors.Is(err, ErrCredentialsRequired):
		return "Email and password are required"
	case errors.Is(err, ErrEmailRequired):
		return "Email is required"
	case errors.Is(err, ErrPasswordRequired):
		return "New password is required"
	case errors.Is(err, ErrRefreshRequired):
		return "Refresh token is required for refreshing"
	case errors.Is(err, ErrEmailTakenDeleted):
		return "User with this email already exists but is deleted. Please contact admin to restore."
	case errors.Is(err, ErrEmailTaken):
		return "User with this email already exists."
	case errors.Is(err, password.ErrPolicy):
		return "Password must be at least 8 characters long, contain an uppercase letter, a lowercase letter, and a special character."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrAccountDeleted):
		return "User account is deleted, please contact admin."
	case errors.Is(err, ErrIdentityNotFound):
		return "User not found"
	case errors.Is(err, ErrTokenMissing):
		return "Authorization token is missing"
	case errors.Is(err, ErrTokenRevoked):
		return "Token has been revoked"
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrTokenInvalid):
		return "Invalid token"
	case errors.Is(err, ErrRefreshExpired):
		return "Refresh token has expired, please log in again."
	case errors.Is(err, ErrRefreshInvalid):
		return "Invalid refresh token"
	case errors.Is(err, ErrResetExpired):
		return "Reset token has expired"
	case errors.Is(err, ErrResetInvalid):
		return "Invalid reset token"
	case errors.Is(err, ErrLogoutFailed):
		return "Logout failed"
	case errors.Is(err, ErrPermissionDenied):
		return "Admin access required"
	case errors.Is(err, ErrTOTPNotConfigured):
		return "2FA is not set up for this user"
	case errors.Is(err, ErrTOTPCodeRequired):
		return "2FA Otp token is required"
	case errors.Is(err, ErrTOTPInvalid):
		return "Invalid 2FA token"
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts, please try again later"
	case errors.Is(err, ErrMailDelivery):
		return "Failed to send email"
	case err != nil:
		return "Something went wrong"
	default:
		return ""
	}
}

// SuccessResponse is the uniform success envelope understood by HTTP
// layers built on the engine.
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the uniform failure envelope understood by HTTP layers
// built on the engine.
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

// NewSuccess describes the newsuccess operation and its observable behavior.
//
// NewSuccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSuccess(message string, data interface{}) SuccessResponse {
	return SuccessResponse{Status: "success", Message: message, Data: data}
}

// NewError describes the newerror operation and its observable behavior.
//
// NewError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewError(err error) ErrorResponse {
	return ErrorResponse{Status: "error", Message: Message(err)}
}

package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	input.Email = strings.TrimSpace(input.Email)

	if err := input.Validate(); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", input.Email, ErrCredentialsRequired, func() map[string]string {
			return map[string]string{"reason": "missing_fields"}
		})
		return nil, fmt.Errorf("%w: %v", ErrCredentialsRequired, err)
	}

	limiterKey := strings.ToLower(input.Email)
	if e.limiter != nil {
		if err := e.limiter.Check(rateBucketLogin, limiterKey); err != nil {
			e.emitRateLimit(ctx, rateBucketLogin, input.Email)
			return nil, ErrRateLimited
		}
	}

	identity, err := e.store.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.recordLoginFailure(ctx, limiterKey, "", input.Email, "unknown_email")
			return nil, ErrInvalidCredentials
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{"reason": "store_lookup"}
		})
		return nil, err
	}

	ok, err := e.passwordHash.Verify(input.Password, identity.PasswordHash)
	if err != nil || !ok {
		e.recordLoginFailure(ctx, limiterKey, identity.ID, input.Email, "password_mismatch")
		return nil, ErrInvalidCredentials
	}

	// The deleted check runs after credential verification so a wrong
	// password never reveals that a deleted account exists.
	if identity.Deleted {
		e.metricInc(MetricLoginDeleted)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, identity.Email, ErrAccountDeleted, func() map[string]string {
			return map[string]string{"reason": "account_deleted"}
		})
		return nil, ErrAccountDeleted
	}

	access, err := e.jwtManager.CreateAccess(identity.ID, identity.Email, identity.Role)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{"reason": "token_mint"}
		})
		return nil, err
	}

	refresh, err := e.jwtManager.CreateRefresh(identity.ID, identity.Email, identity.Role)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{"reason": "token_mint"}
		})
		return nil, err
	}

	if e.limiter != nil {
		e.limiter.Reset(rateBucketLogin, limiterKey)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, identity.Email, nil, nil)

	return &LoginResult{
		User:         identity.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, limiterKey, userID, email, reason string) {
	if e.limiter != nil {
		e.limiter.Increment(rateBucketLogin, limiterKey)
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, email, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})
}

package authcore

import (
	"context"
	"fmt"
	"strings"
)

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, rawToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, "", "", ErrTokenMissing, func() map[string]string {
			return map[string]string{"reason": "missing_token"}
		})
		return ErrTokenMissing
	}

	// Logout never succeeds on a token that does not decode, expired
	// tokens included.
	claims, err := e.jwtManager.Parse(rawToken)
	if err != nil {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, "", "", ErrLogoutFailed, func() map[string]string {
			return map[string]string{"reason": "decode"}
		})
		return fmt.Errorf("%w: %v", ErrLogoutFailed, err)
	}

	if claims.ExpiresAt == nil {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, claims.UserID, claims.Email, ErrLogoutFailed, func() map[string]string {
			return map[string]string{"reason": "missing_exp"}
		})
		return ErrLogoutFailed
	}

	if err := e.registry.Revoke(ctx, rawToken, claims.ExpiresAt.Time); err != nil {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, claims.UserID, claims.Email, err, func() map[string]string {
			return map[string]string{"reason": "blacklist_insert"}
		})
		return err
	}

	e.metricInc(MetricLogoutSuccess)
	e.emitAudit(ctx, auditEventLogoutSuccess, true, claims.UserID, claims.Email, nil, nil)

	return nil
}

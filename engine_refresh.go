package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gp-18/authcore/jwt"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrRefreshRequired, func() map[string]string {
			return map[string]string{"reason": "missing_token"}
		})
		return nil, ErrRefreshRequired
	}

	claims, err := e.jwtManager.Parse(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, jwt.ErrTokenExpired) {
			e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrRefreshExpired, func() map[string]string {
				return map[string]string{"reason": "expired"}
			})
			return nil, fmt.Errorf("%w: %v", ErrRefreshExpired, err)
		}
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"reason": "invalid"}
		})
		return nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	// Claims are carried over verbatim; a live refresh token mints an
	// access token without a store round trip.
	access, err := e.jwtManager.CreateAccess(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.UserID, claims.Email, err, func() map[string]string {
			return map[string]string{"reason": "token_mint"}
		})
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.UserID, claims.Email, nil, nil)

	return &RefreshResult{AccessToken: access}, nil
}

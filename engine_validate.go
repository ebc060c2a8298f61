package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gp-18/authcore/jwt"
)

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, rawToken string) (*Claims, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		e.metricInc(MetricValidateInvalid)
		return nil, ErrTokenMissing
	}

	// Blacklist membership is checked before the token is decoded.
	revoked, err := e.registry.IsRevoked(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		e.metricInc(MetricValidateRevoked)
		return nil, ErrTokenRevoked
	}

	claims, err := e.jwtManager.Parse(rawToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			e.metricInc(MetricValidateExpired)
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		e.metricInc(MetricValidateInvalid)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	e.metricInc(MetricValidateAllowed)
	return claims, nil
}

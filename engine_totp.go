package authcore

import (
	"context"
	"strings"
	"time"

	"github.com/gp-18/authcore/totp"
)

// SetupTOTP describes the setuptotp operation and its observable behavior.
//
// SetupTOTP may return an error when input validation, dependency calls, or security checks fail.
// SetupTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetupTOTP(ctx context.Context, userID string) (*TOTPSetup, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	_, secret, err := e.totpManager.GenerateSecret()
	if err != nil {
		e.emitAudit(ctx, auditEventTOTPSetup, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "secret_generation"}
		})
		return nil, err
	}

	// Re-setup overwrites the previous secret; codes minted from the old
	// secret stop verifying immediately.
	now := time.Now().UTC()
	updated, err := e.store.Update(ctx, userID, func(identity *Identity) error {
		identity.TOTPSecret = secret
		identity.TOTPEnabled = true
		identity.UpdatedBy = identity.Email
		identity.UpdatedAt = now
		return nil
	})
	if err != nil {
		e.emitAudit(ctx, auditEventTOTPSetup, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "store_update"}
		})
		return nil, err
	}

	uri := e.totpManager.ProvisioningURI(secret, updated.Email)
	qr, err := totp.QRCodeDataURI(uri)
	if err != nil {
		e.emitAudit(ctx, auditEventTOTPSetup, false, updated.ID, updated.Email, err, func() map[string]string {
			return map[string]string{"reason": "qr_encode"}
		})
		return nil, err
	}

	e.metricInc(MetricTOTPSetup)
	e.emitAudit(ctx, auditEventTOTPSetup, true, updated.ID, updated.Email, nil, nil)

	return &TOTPSetup{
		ManualCode: secret,
		OTPAuthURI: uri,
		QRCodeURL:  qr,
	}, nil
}

// VerifyTOTP describes the verifytotp operation and its observable behavior.
//
// VerifyTOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyTOTP(ctx context.Context, userID, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	identity, err := e.store.FindByID(ctx, userID)
	if err != nil {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "store_lookup"}
		})
		return err
	}

	if !identity.TOTPEnabled || identity.TOTPSecret == "" {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, identity.ID, identity.Email, ErrTOTPNotConfigured, func() map[string]string {
			return map[string]string{"reason": "not_configured"}
		})
		return ErrTOTPNotConfigured
	}

	if strings.TrimSpace(code) == "" {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, identity.ID, identity.Email, ErrTOTPCodeRequired, func() map[string]string {
			return map[string]string{"reason": "missing_code"}
		})
		return ErrTOTPCodeRequired
	}

	secret, err := totp.DecodeSecret(identity.TOTPSecret)
	if err != nil {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{"reason": "secret_decode"}
		})
		return err
	}

	ok, err := e.totpManager.Verify(secret, code, time.Now())
	if err != nil {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{"reason": "verify"}
		})
		return err
	}
	if !ok {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, identity.ID, identity.Email, ErrTOTPInvalid, func() map[string]string {
			return map[string]string{"reason": "code_mismatch"}
		})
		return ErrTOTPInvalid
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditEventTOTPSuccess, true, identity.ID, identity.Email, nil, nil)

	return nil
}

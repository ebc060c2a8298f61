package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gp-18/authcore/jwt"
	"github.com/gp-18/authcore/mail"
	"github.com/gp-18/authcore/password"
)

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if strings.TrimSpace(newPassword) == "" {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", ErrPasswordRequired, func() map[string]string {
			return map[string]string{"reason": "missing_password"}
		})
		return ErrPasswordRequired
	}

	if err := password.ValidatePolicy(newPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "password_policy"}
		})
		return err
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "hash"}
		})
		return err
	}

	now := time.Now().UTC()
	updated, err := e.store.Update(ctx, userID, func(identity *Identity) error {
		identity.PasswordHash = hash
		identity.UpdatedBy = identity.Email
		identity.UpdatedAt = now
		return nil
	})
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": "store_update"}
		})
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, updated.ID, updated.Email, nil, nil)

	return nil
}

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", "", ErrEmailRequired, func() map[string]string {
			return map[string]string{"reason": "missing_email"}
		})
		return ErrEmailRequired
	}

	if e.limiter != nil {
		if err := e.limiter.Allow(rateBucketReset, strings.ToLower(email)); err != nil {
			e.emitRateLimit(ctx, rateBucketReset, email)
			return ErrRateLimited
		}
	}

	// Unknown email reports not found only after the store lookup.
	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", email, err, func() map[string]string {
			return map[string]string{"reason": "store_lookup"}
		})
		return err
	}

	token, err := e.jwtManager.CreateReset(identity.ID)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{"reason": "token_mint"}
		})
		return err
	}

	link := e.config.Reset.FrontendURL + "/reset-password?token=" + token
	subject, textBody, htmlBody := mail.ComposePasswordReset(link)

	if e.mailer == nil {
		e.metricInc(MetricMailFailure)
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, identity.Email, ErrMailDelivery, func() map[string]string {
			return map[string]string{"reason": "no_mailer"}
		})
		return ErrMailDelivery
	}

	if err := e.mailer.Send(ctx, identity.Email, subject, textBody, htmlBody); err != nil {
		e.metricInc(MetricMailFailure)
		e.logger().WithError(err).WithField("email", identity.Email).Error("password reset email failed")
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, identity.Email, ErrMailDelivery, func() map[string]string {
			return map[string]string{"reason": "mail_send"}
		})
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, identity.ID, identity.Email, nil, nil)

	return nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrResetInvalid, func() map[string]string {
			return map[string]string{"reason": "missing_token"}
		})
		return ErrResetInvalid
	}
	if strings.TrimSpace(newPassword) == "" {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrPasswordRequired, func() map[string]string {
			return map[string]string{"reason": "missing_password"}
		})
		return ErrPasswordRequired
	}

	claims, err := e.jwtManager.ParseReset(resetToken)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		if errors.Is(err, jwt.ErrTokenExpired) {
			e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrResetExpired, func() map[string]string {
				return map[string]string{"reason": "expired"}
			})
			return fmt.Errorf("%w: %v", ErrResetExpired, err)
		}
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrResetInvalid, func() map[string]string {
			return map[string]string{"reason": "invalid"}
		})
		return fmt.Errorf("%w: %v", ErrResetInvalid, err)
	}

	if err := password.ValidatePolicy(newPassword); err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.UserID, "", err, func() map[string]string {
			return map[string]string{"reason": "password_policy"}
		})
		return err
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.UserID, "", err, func() map[string]string {
			return map[string]string{"reason": "hash"}
		})
		return err
	}

	now := time.Now().UTC()
	updated, err := e.store.Update(ctx, claims.UserID, func(identity *Identity) error {
		identity.PasswordHash = hash
		identity.UpdatedBy = identity.Email
		identity.UpdatedAt = now
		return nil
	})
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.UserID, "", err, func() map[string]string {
			return map[string]string{"reason": "store_update"}
		})
		return err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, updated.ID, updated.Email, nil, nil)

	return nil
}

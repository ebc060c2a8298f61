package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gp-18/authcore/password"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*Identity, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := input.Validate(); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, ErrMissingFields, func() map[string]string {
			return map[string]string{"reason": "missing_fields"}
		})
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && (input.Actor == nil || !Can(*input.Actor, ActionManageUsers, nil)) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, ErrPermissionDenied, func() map[string]string {
			return map[string]string{"reason": "role_not_permitted", "role": role}
		})
		return nil, ErrPermissionDenied
	}

	// A soft-deleted record blocks re-registration with its own message,
	// checked ahead of the plain duplicate case.
	existing, err := e.store.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		e.metricInc(MetricRegisterDuplicate)
		if existing.Deleted {
			e.emitAudit(ctx, auditEventRegisterFailure, false, existing.ID, input.Email, ErrEmailTakenDeleted, func() map[string]string {
				return map[string]string{"reason": "duplicate_deleted"}
			})
			return nil, ErrEmailTakenDeleted
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, existing.ID, input.Email, ErrEmailTaken, func() map[string]string {
			return map[string]string{"reason": "duplicate"}
		})
		return nil, ErrEmailTaken
	case !errors.Is(err, ErrIdentityNotFound):
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{"reason": "store_lookup"}
		})
		return nil, err
	}

	if err := password.ValidatePolicy(input.Password); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{"reason": "password_policy"}
		})
		return nil, err
	}

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{"reason": "hash"}
		})
		return nil, err
	}

	createdBy := input.Email
	if input.Actor != nil {
		createdBy = input.Actor.Email
		if createdBy == "" {
			createdBy = input.Actor.UserID
		}
	}

	now := time.Now().UTC()
	identity := &Identity{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedBy:    createdBy,
		UpdatedAt:    now,
	}

	id, err := e.store.Insert(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, ErrEmailTaken, func() map[string]string {
				return map[string]string{"reason": "duplicate"}
			})
			return nil, ErrEmailTaken
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{"reason": "store_insert"}
		})
		return nil, err
	}

	e.notify(webhookEventUserRegistered, map[string]interface{}{
		"email": identity.Email,
		"role":  identity.Role,
		"id":    id,
	})

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, id, identity.Email, nil, func() map[string]string {
		return map[string]string{"role": identity.Role}
	})

	return identity.Sanitized(), nil
}

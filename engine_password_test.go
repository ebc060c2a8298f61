package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gp-18/authcore/jwt"
	"github.com/gp-18/authcore/password"
)

const newTestPassword = "N3w@Password"

// resetTokenFor mints a live reset token against the test signing secret.
func resetTokenFor(t *testing.T, userID string) string {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		Key:        append([]byte(nil), testJWTSecret...),
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
		ResetTTL:   time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	token, err := m.CreateReset(userID)
	if err != nil {
		t.Fatalf("CreateReset: %v", err)
	}
	return token
}

func TestChangePasswordRoundTrip(t *testing.T) {
	env := newTestEngine(t)
	identity := registerTestUser(t, env)

	if err := env.engine.ChangePassword(context.Background(), identity.ID, newTestPassword); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: testPassword,
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}

	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: newTestPassword,
	}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	stored, err := env.store.FindByID(context.Background(), identity.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.UpdatedBy != testEmail {
		t.Fatalf("UpdatedBy = %q, want %q", stored.UpdatedBy, testEmail)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordChangeSuccess] != 1 {
		t.Fatalf("change counter = %d", snap.Counters[MetricPasswordChangeSuccess])
	}
}

func TestChangePasswordRejectsBadInput(t *testing.T) {
	env := newTestEngine(t)
	identity := registerTestUser(t, env)

	if err := env.engine.ChangePassword(context.Background(), identity.ID, "  "); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("blank password: got %v, want ErrPasswordRequired", err)
	}
	if err := env.engine.ChangePassword(context.Background(), identity.ID, "weakpass"); !errors.Is(err, password.ErrPolicy) {
		t.Fatalf("weak password: got %v, want policy error", err)
	}

	// Bad input never touches the stored hash.
	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: testPassword,
	}); err != nil {
		t.Fatalf("original password broken: %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	env := newTestEngine(t)

	err := env.engine.ChangePassword(context.Background(), "ghost", newTestPassword)
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("got %v, want ErrIdentityNotFound", err)
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %v, want KindNotFound", KindOf(err))
	}
}

func TestForgotPasswordDeliversWorkingResetLink(t *testing.T) {
	env := newTestEngine(t)
	registerTestUser(t, env)

	if err := env.engine.ForgotPassword(context.Background(), testEmail); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	sent := env.mailer.snapshot()
	if len(sent) != 1 {
		t.Fatalf("mails sent = %d, want 1", len(sent))
	}
	if sent[0].to != testEmail {
		t.Fatalf("recipient = %q", sent[0].to)
	}
	if sent[0].subject != "Password Reset Request" {
		t.Fatalf("subject = %q", sent[0].subject)
	}

	marker := env.engine.config.Reset.FrontendURL + "/reset-password?token="
	if !strings.Contains(sent[0].textBody, marker) {
		t.Fatalf("text body missing reset link:\n%s", sent[0].textBody)
	}

	after := strings.SplitN(sent[0].textBody, "token=", 2)[1]
	token := strings.SplitN(after, "\n", 2)[0]

	if err := env.engine.ResetPassword(context.Background(), token, newTestPassword); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: newTestPassword,
	}); err != nil {
		t.Fatalf("login with reset password: %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordResetRequest] != 1 {
		t.Fatalf("reset request counter = %d", snap.Counters[MetricPasswordResetRequest])
	}
	if snap.Counters[MetricPasswordResetConfirmSuccess] != 1 {
		t.Fatalf("reset confirm counter = %d", snap.Counters[MetricPasswordResetConfirmSuccess])
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEngine(t)

	err := env.engine.ForgotPassword(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("got %v, want ErrIdentityNotFound", err)
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %v, want KindNotFound", KindOf(err))
	}
	if sent := env.mailer.snapshot(); len(sent) != 0 {
		t.Fatalf("mail sent for unknown email: %+v", sent)
	}
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	env := newTestEngine(t)

	if err := env.engine.ForgotPassword(context.Background(), "  "); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("got %v, want ErrEmailRequired", err)
	}
}

func TestForgotPasswordMailFailure(t *testing.T) {
	env := newTestEngine(t)
	registerTestUser(t, env)
	env.mailer.fail = true

	err := env.engine.ForgotPassword(context.Background(), testEmail)
	if !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("got %v, want ErrMailDelivery", err)
	}
	if KindOf(err) != KindDependency {
		t.Fatalf("KindOf = %v, want KindDependency", KindOf(err))
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricMailFailure] != 1 {
		t.Fatalf("mail failure counter = %d", snap.Counters[MetricMailFailure])
	}
}

func TestForgotPasswordRateLimited(t *testing.T) {
	env := newTestEngineWithConfig(t, func(cfg *Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Window = time.Minute
		cfg.RateLimit.MaxAttempts = 2
	})
	registerTestUser(t, env)

	for i := 0; i < 2; i++ {
		if err := env.engine.ForgotPassword(context.Background(), testEmail); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	// Every request counts against the budget, successful ones included.
	err := env.engine.ForgotPassword(context.Background(), testEmail)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
	if sent := env.mailer.snapshot(); len(sent) != 2 {
		t.Fatalf("mails sent = %d, want 2", len(sent))
	}
}

func TestResetPasswordRejectsBadTokens(t *testing.T) {
	env := newTestEngine(t)

	if err := env.engine.ResetPassword(context.Background(), "  ", newTestPassword); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("blank token: got %v, want ErrResetInvalid", err)
	}
	if err := env.engine.ResetPassword(context.Background(), "garbage", newTestPassword); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("garbage token: got %v, want ErrResetInvalid", err)
	}

	expired, err := shortLivedTokenManager(t).CreateReset("user-1")
	if err != nil {
		t.Fatalf("CreateReset: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := env.engine.ResetPassword(context.Background(), expired, newTestPassword); !errors.Is(err, ErrResetExpired) {
		t.Fatalf("expired token: got %v, want ErrResetExpired", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordResetConfirmFailure] != 3 {
		t.Fatalf("confirm failure counter = %d", snap.Counters[MetricPasswordResetConfirmFailure])
	}
}

func TestResetPasswordValidatesNewPassword(t *testing.T) {
	env := newTestEngine(t)
	identity := registerTestUser(t, env)
	token := resetTokenFor(t, identity.ID)

	if err := env.engine.ResetPassword(context.Background(), token, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("blank password: got %v, want ErrPasswordRequired", err)
	}
	if err := env.engine.ResetPassword(context.Background(), token, "weakpass"); !errors.Is(err, password.ErrPolicy) {
		t.Fatalf("weak password: got %v, want policy error", err)
	}
}

func TestResetPasswordUnknownUser(t *testing.T) {
	env := newTestEngine(t)
	token := resetTokenFor(t, "ghost")

	if err := env.engine.ResetPassword(context.Background(), token, newTestPassword); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("got %v, want ErrIdentityNotFound", err)
	}
}

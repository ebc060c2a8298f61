package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRefreshMintsWorkingAccessToken(t *testing.T) {
	env := newTestEngine(t)
	identity := registerTestUser(t, env)

	login, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	result, err := env.engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("no access token minted")
	}

	claims, err := env.engine.Validate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("Validate(minted): %v", err)
	}
	if claims.UserID != identity.ID || claims.Email != testEmail || claims.Role != RoleUser {
		t.Fatalf("claims = %+v", claims)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("refresh success counter = %d", snap.Counters[MetricRefreshSuccess])
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	env := newTestEngine(t)

	for _, token := range []string{"", "   "} {
		_, err := env.engine.Refresh(context.Background(), token)
		if !errors.Is(err, ErrRefreshRequired) {
			t.Fatalf("Refresh(%q): got %v, want ErrRefreshRequired", token, err)
		}
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	env := newTestEngine(t)

	_, err := env.engine.Refresh(context.Background(), "not.a.token")
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("got %v, want ErrRefreshInvalid", err)
	}
	if KindOf(err) != KindAuthentication {
		t.Fatalf("KindOf = %v, want KindAuthentication", KindOf(err))
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricRefreshFailure] != 1 {
		t.Fatalf("refresh failure counter = %d", snap.Counters[MetricRefreshFailure])
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	env := newTestEngine(t)

	expired, err := shortLivedTokenManager(t).CreateRefresh("user-1", testEmail, RoleUser)
	if err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	_, err = env.engine.Refresh(context.Background(), expired)
	if !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("got %v, want ErrRefreshExpired", err)
	}
}

func TestRefreshDoesNotRecheckStore(t *testing.T) {
	env := newTestEngine(t)
	identity := registerTestUser(t, env)

	login, err := env.engine.Login(context.Background(), LoginInput{
		Email:    testEmail,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	markDeleted(t, env, identity.ID)

	// A live refresh token keeps minting regardless of account state; the
	// claims come straight off the token.
	result, err := env.engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh after delete: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("no access token minted")
	}
}

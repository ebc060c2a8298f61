//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/gp-18/authcore"
	"github.com/gp-18/authcore/store/redistore"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// Each pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// newCountedEngine builds an engine over a Redis store backed by miniredis
// with a cmdCounter hook installed, registers one account, and logs it in.
// The counter is reset before it is returned, so only the measured operation
// shows up in the counts.
func newCountedEngine(t *testing.T) (*authcore.Engine, *authcore.LoginResult, *cmdCounter, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, CLIENT SETINFO, etc.). Issuing a PING up front keeps that
	// noise out of the measured budgets.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	cfg.Blacklist.SweepEnabled = false

	engine, err := authcore.New().
		WithConfig(cfg).
		WithStore(redistore.New(rdb)).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Register(ctx, authcore.RegisterInput{
		Username: "budget",
		Email:    "budget@example.com",
		Password: "Str0ng@Pass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := engine.Login(ctx, authcore.LoginInput{
		Email:    "budget@example.com",
		Password: "Str0ng@Pass",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	counter.Reset()

	return engine, login, counter, func() {
		_ = engine.Close()
		mr.Close()
	}
}

// TestValidateRedisBudget pins the hot-path contract documented on the
// package: validating a live token costs exactly one Redis command (the
// blacklist EXISTS) and never a pipeline.
func TestValidateRedisBudget(t *testing.T) {
	engine, login, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	if _, err := engine.Validate(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cmds := counter.Commands(); cmds != 1 {
		t.Errorf("Validate used %d Redis commands; budget is exactly 1 (blacklist EXISTS)", cmds)
	}
	if pipes := counter.Pipelines(); pipes != 0 {
		t.Errorf("Validate used %d pipelines; budget is 0", pipes)
	}
	t.Logf("Validate: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestRefreshRedisBudget verifies that minting a fresh access token from a
// refresh token never touches the store at all.
func TestRefreshRedisBudget(t *testing.T) {
	engine, login, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	if _, err := engine.Refresh(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if cmds := counter.Commands(); cmds != 0 {
		t.Errorf("Refresh used %d Redis commands; budget is 0 (claims-only)", cmds)
	}
	t.Logf("Refresh: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestLoginRedisBudget verifies that login costs two GETs: the email index
// lookup plus the identity document read.
func TestLoginRedisBudget(t *testing.T) {
	engine, _, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	if _, err := engine.Login(context.Background(), authcore.LoginInput{
		Email:    "budget@example.com",
		Password: "Str0ng@Pass",
	}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("Login used %d Redis commands; budget is ≤ 2 (email index GET + identity GET)", cmds)
	}
	if pipes := counter.Pipelines(); pipes != 0 {
		t.Errorf("Login used %d pipelines; budget is 0", pipes)
	}
	t.Logf("Login: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestLogoutRedisBudget verifies that revocation is one transactional
// pipeline (SET + ZADD under MULTI/EXEC).
func TestLogoutRedisBudget(t *testing.T) {
	engine, login, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	if err := engine.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if pipes := counter.Pipelines(); pipes != 1 {
		t.Errorf("Logout used %d pipelines; budget is exactly 1 (MULTI SET ZADD EXEC)", pipes)
	}
	// MULTI/EXEC framing counts toward the command total.
	if cmds := counter.Commands(); cmds > 6 {
		t.Errorf("Logout used %d Redis commands; budget is ≤ 6", cmds)
	}
	t.Logf("Logout: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

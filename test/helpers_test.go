//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/gp-18/authcore"
	"github.com/gp-18/authcore/store/bunstore"
	"github.com/gp-18/authcore/store/memstore"
	"github.com/gp-18/authcore/store/redistore"
)

// storeBackend describes one Store implementation the conformance suite
// runs against.
type storeBackend struct {
	name  string
	setup func(t *testing.T) (authcore.Store, func())
}

// storeBackends returns every available backend. memstore, redistore on
// miniredis, and bunstore on in-memory SQLite are always available; a real
// Redis standalone is added when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func storeBackends(t *testing.T) []storeBackend {
	t.Helper()

	backends := []storeBackend{
		{
			name: "memstore",
			setup: func(t *testing.T) (authcore.Store, func()) {
				t.Helper()
				s := memstore.New()
				return s, func() { _ = s.Close() }
			},
		},
		{
			name: "redistore/miniredis",
			setup: func(t *testing.T) (authcore.Store, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				s := redistore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
				return s, func() {
					_ = s.Close()
					mr.Close()
				}
			},
		},
		{
			name: "bunstore/sqlite",
			setup: func(t *testing.T) (authcore.Store, func()) {
				t.Helper()
				s, err := bunstore.Open(":memory:")
				if err != nil {
					t.Fatalf("bunstore open: %v", err)
				}
				return s, func() { _ = s.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		backends = append(backends, storeBackend{
			name: "redistore/standalone:" + addr,
			setup: func(t *testing.T) (authcore.Store, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				if err := rdb.FlushDB(context.Background()).Err(); err != nil {
					t.Fatalf("flush %s: %v", addr, err)
				}
				s := redistore.New(rdb)
				return s, func() { _ = s.Close() }
			},
		})
	}

	return backends
}

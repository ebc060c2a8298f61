// Command authcore-smoke runs an in-process smoke/load pass over the
// engine: it seeds users, then drives concurrent login, validate,
// refresh, and logout phases against the selected store and prints
// latency percentiles plus the final metrics snapshot.
//
// Run against the in-memory store:
//
//	go run ./cmd/authcore-smoke
//
// Run against Redis (miniredis is started when no address is given):
//
//	go run ./cmd/authcore-smoke -store redis
//	go run ./cmd/authcore-smoke -store redis -redis-addr localhost:6379
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	authcore "github.com/gp-18/authcore"
	"github.com/gp-18/authcore/metrics/export/internaldefs"
	"github.com/gp-18/authcore/store/memstore"
	"github.com/gp-18/authcore/store/redistore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type userState struct {
	email        string
	password     string
	accessToken  string
	refreshToken string
	mu           sync.Mutex
}

func main() {
	var (
		users       = flag.Int("users", 500, "number of users to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (validate + refresh)")
		storeKind   = flag.String("store", "memory", "backing store: memory or redis")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	store, cleanup, err := buildStore(*storeKind, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store setup failed: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Mail.Host = ""
	cfg.Blacklist.SweepEnabled = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	// Cheap hash parameters keep the seed phase fast; never use these in production.
	cfg.Password = authcore.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithStore(store).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := engine.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "engine start failed: %v\n", err)
		os.Exit(1)
	}

	states := make([]*userState, *users)
	for i := range states {
		states[i] = &userState{
			email:    fmt.Sprintf("smoke-%d@example.com", i),
			password: fmt.Sprintf("Sm0ke@Pass%d", i),
		}
	}

	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	if err := seedUsers(ctx, engine, states, *concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runLoginPhase(ctx, engine, states, *concurrency)
	validateStats := runValidatePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)
	logoutStats := runLogoutPhase(ctx, engine, states, *concurrency)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)
	printStats("logout", logoutStats)

	fmt.Println("---- metrics ----")
	snap := engine.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		if v := snap.Counters[def.ID]; v > 0 {
			fmt.Printf("%s %d\n", def.Name, v)
		}
	}
	if dropped := engine.AuditDropped(); dropped > 0 {
		fmt.Printf("authcore_audit_dropped_total %d\n", dropped)
	}
}

func buildStore(kind, addr string) (authcore.Store, func(), error) {
	switch kind {
	case "memory":
		fmt.Println("using in-memory store")
		return memstore.New(), func() {}, nil

	case "redis":
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			client := redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs: []string{mr.Addr()},
			})
			fmt.Printf("using miniredis at %s\n", mr.Addr())
			return redistore.New(client), func() {
				_ = client.Close()
				mr.Close()
			}, nil
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		fmt.Printf("using redis at %s\n", addr)
		return redistore.New(client), func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

func seedUsers(ctx context.Context, engine *authcore.Engine, states []*userState, concurrency int) error {
	var (
		wg      sync.WaitGroup
		cursor  int64
		firstMu sync.Mutex
		first   error
	)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				_, err := engine.Register(ctx, authcore.RegisterInput{
					Username: fmt.Sprintf("smoke-%d", i),
					Email:    states[i].email,
					Password: states[i].password,
				})
				if err != nil {
					firstMu.Lock()
					if first == nil {
						first = fmt.Errorf("register %s: %w", states[i].email, err)
					}
					firstMu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()
	return first
}

func runLoginPhase(ctx context.Context, engine *authcore.Engine, states []*userState, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(states))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				state := states[i]

				t0 := time.Now()
				result, err := engine.Login(ctx, authcore.LoginInput{
					Email:    state.email,
					Password: state.password,
				})
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					state.mu.Lock()
					state.accessToken = result.AccessToken
					state.refreshToken = result.RefreshToken
					state.mu.Unlock()
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runValidatePhase(ctx context.Context, engine *authcore.Engine, states []*userState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := states[r.Intn(len(states))]
				state.mu.Lock()
				token := state.accessToken
				state.mu.Unlock()

				t0 := time.Now()
				_, err := engine.Validate(ctx, token)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runRefreshPhase(ctx context.Context, engine *authcore.Engine, states []*userState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := states[r.Intn(len(states))]
				state.mu.Lock()
				refresh := state.refreshToken
				state.mu.Unlock()

				t0 := time.Now()
				result, err := engine.Refresh(ctx, refresh)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					state.mu.Lock()
					state.accessToken = result.AccessToken
					state.mu.Unlock()
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runLogoutPhase(ctx context.Context, engine *authcore.Engine, states []*userState, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(states))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				state := states[i]
				state.mu.Lock()
				token := state.accessToken
				state.mu.Unlock()

				t0 := time.Now()
				err := engine.Logout(ctx, token)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

package authcore

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gp-18/authcore/blacklist"
	"github.com/gp-18/authcore/internal/audit"
	"github.com/gp-18/authcore/internal/rate"
	"github.com/gp-18/authcore/jwt"
	"github.com/gp-18/authcore/password"
	"github.com/gp-18/authcore/totp"
)

// Rate limiter buckets. Keys inside a bucket are normalized emails.
const (
	rateBucketLogin = "login"
	rateBucketReset = "reset"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config

	store    Store
	registry *blacklist.Registry
	sweeper  *blacklist.Sweeper

	jwtManager   *jwt.Manager
	passwordHash *password.Argon2
	totpManager  *totp.Manager

	mailer   Mailer
	notifier Notifier
	limiter  *rate.Limiter

	audit   *audit.Dispatcher
	metrics *Metrics
	log     logrus.FieldLogger

	notifyWG sync.WaitGroup
}

// Start describes the start operation and its observable behavior.
//
// Start may return an error when input validation, dependency calls, or security checks fail.
// Start does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Start(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.sweeper != nil {
		e.sweeper.Start()
	}
	return nil
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.sweeper != nil {
		e.sweeper.Stop()
	}
	e.notifyWG.Wait()
	if e.audit != nil {
		e.audit.Close()
		if dropped := e.audit.Dropped(); dropped > 0 {
			e.logger().WithField("dropped", dropped).Warn("audit events dropped")
		}
	}
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SweepBlacklist describes the sweepblacklist operation and its observable behavior.
//
// SweepBlacklist may return an error when input validation, dependency calls, or security checks fail.
// SweepBlacklist does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SweepBlacklist(ctx context.Context) (int64, error) {
	if e == nil || e.registry == nil {
		return 0, ErrEngineNotReady
	}

	purged, err := e.registry.Sweep(ctx)
	e.metricInc(MetricSweepRuns)
	if err != nil {
		return 0, err
	}
	if e.metrics != nil && purged > 0 {
		e.metrics.Add(MetricSweepPurged, uint64(purged))
	}

	return purged, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) logger() logrus.FieldLogger {
	if e == nil || e.log == nil {
		return logrus.StandardLogger()
	}
	return e.log
}

// notify dispatches an event to the configured notifier on a detached
// goroutine. Delivery failures are counted and logged, never returned;
// Close waits for in-flight notifications.
func (e *Engine) notify(event string, payload map[string]interface{}) {
	if e == nil || e.notifier == nil {
		return
	}

	timeout := e.config.Webhook.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := e.notifier.Notify(ctx, event, payload); err != nil {
			e.metricInc(MetricWebhookFailure)
			e.logger().WithError(err).WithField("event", event).Warn("webhook notification failed")
		}
	}()
}

package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSweepSpec runs the sweep daily at 01:00 UTC.
const DefaultSweepSpec = "0 1 * * *"

const sweepTimeout = time.Minute

// Sweeper periodically purges expired blacklist entries on a cron
// schedule evaluated in UTC.
type Sweeper struct {
	registry *Registry
	cron     *cron.Cron
	log      logrus.FieldLogger
	onSweep  func(purged int64, err error)
}

// NewSweeper schedules registry.Sweep on spec. The optional onSweep hook
// observes every run's outcome; the engine uses it for metrics. The
// schedule is validated up front.
func NewSweeper(registry *Registry, spec string, log logrus.FieldLogger, onSweep func(purged int64, err error)) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if log == nil {
		log = logrus.New()
	}

	s := &Sweeper{
		registry: registry,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		log:      log,
		onSweep:  onSweep,
	}

	if _, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("blacklist: invalid sweep schedule %q: %w", spec, err)
	}

	return s, nil
}

// RunOnce performs a single sweep, reporting the outcome to the log and
// the onSweep hook. Cron invokes it on schedule; callers may invoke it
// directly, typically once at startup.
func (s *Sweeper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	purged, err := s.registry.Sweep(ctx)
	if err != nil {
		s.log.WithError(err).Error("blacklist sweep failed")
	} else {
		s.log.WithField("purged", purged).Info("blacklist sweep completed")
	}

	if s.onSweep != nil {
		s.onSweep(purged, err)
	}
}

// Start begins scheduled sweeping. It is safe to call once.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	stopped := s.cron.Stop()
	<-stopped.Done()
}

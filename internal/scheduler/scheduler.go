package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	defaultInterval = 15 * time.Minute
	refreshTimeout  = 30 * time.Second
)

// Refresher fetches and stores a fresh forecast for one location.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically refreshes the forecasts of the configured locations
// so the latest/history endpoints have data between dashboard views.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations []weather.Location
	interval  time.Duration
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, refresher Refresher, log *zap.SugaredLogger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		locations: locations,
		interval:  interval,
		log:       log.Named("scheduler"),
		metrics:   m,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info("no locations configured; nothing to schedule")
		return nil
	}

	interval := s.jobInterval()
	_, err := s.scheduler.Every(interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.log.Infow("scheduled forecast refresh", "every", interval.String(), "locations", len(s.locations))
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) jobInterval() time.Duration {
	if s.interval <= 0 {
		return defaultInterval
	}
	return s.interval
}

// RunOnce refreshes every location concurrently and returns the number of
// failed refreshes.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	s.log.Debug("running forecast refresh job")

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()

			if err := s.refresher.Refresh(ctx, loc); err != nil {
				s.log.Warnw("refresh failed", "location", loc.Label(), "error", err)
				s.metrics.Refresh(metrics.OutcomeError)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			s.metrics.Refresh(metrics.OutcomeSuccess)
		}()
	}
	wg.Wait()

	s.log.Debugw("completed forecast refresh job", "failed", failed)
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

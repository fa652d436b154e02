// Package scheduler hosts the retention sweeper: a background job that purges
// durable-tier rows past the retention window.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/dkotenko/weather-aggregation-api/internal/metrics"
)

// Purger is the slice of the durable store the sweeper needs.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically deletes durable rows older than the retention window.
// Its failures are logged and counted, never surfaced to the serving path.
type Sweeper struct {
	scheduler *gocron.Scheduler
	store     Purger
	interval  time.Duration
	retention time.Duration

	now func() time.Time
}

// NewSweeper creates a Sweeper running every interval and keeping rows whose
// created_at is within retention of now.
func NewSweeper(store Purger, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().UTC().Add(-s.retention)

	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("sweeper: purge failed: %v", err)
		metrics.SweepsTotal.WithLabelValues("failure").Inc()
		return
	}

	metrics.SweepsTotal.WithLabelValues("success").Inc()
	metrics.SweptRows.Add(float64(deleted))
	log.Printf("sweeper: removed %d records created before %s", deleted, cutoff.Format(time.RFC3339))
}

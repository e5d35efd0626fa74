// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/notegen/notegen/internal/metrics"
)

// Sweeper performs one expiry pass and reports how many records it removed.
type Sweeper interface {
	Run(ctx context.Context) (int, error)
}

// ExpiryConfig configures the daily expiry job.
type ExpiryConfig struct {
	Location    *time.Location // calendar whose midnight triggers the job
	Timeout     time.Duration  // per attempt
	MaxAttempts int
	BaseBackoff time.Duration
}

// ExpiryJob runs a Sweeper every day at 00:00 in its location.
// A failed run is retried with exponential backoff up to MaxAttempts,
// then left for the next day.
type ExpiryJob struct {
	sweeper Sweeper
	cfg     ExpiryConfig
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewExpiryJob creates an ExpiryJob with defaults for zero config fields.
func NewExpiryJob(sweeper Sweeper, cfg ExpiryConfig, logger *slog.Logger, recorder metrics.Recorder) *ExpiryJob {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	return &ExpiryJob{
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.With("component", "jobs.expiry"),
		metrics: recorder,
		now:     time.Now,
		after:   time.After,
	}
}

// NextMidnight returns the first 00:00 in loc strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

// Run blocks, firing the sweep every midnight, until ctx is cancelled
// or Shutdown is called.
func (j *ExpiryJob) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return errors.New("expiry job already started")
	}
	j.started = true
	j.done = make(chan struct{})
	ctx, j.cancel = context.WithCancel(ctx)
	j.mu.Unlock()

	defer close(j.done)

	j.logger.Info("expiry job started", "location", j.cfg.Location.String())

	for {
		next := NextMidnight(j.now(), j.cfg.Location)
		wait := next.Sub(j.now())
		j.logger.Debug("next expiry run scheduled", "at", next, "in", wait)

		select {
		case <-ctx.Done():
			j.logger.Info("expiry job stopping")
			return nil
		case <-j.after(wait):
			_ = j.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep with retries and returns the last error.
func (j *ExpiryJob) RunOnce(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= j.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
		n, err := j.sweeper.Run(attemptCtx)
		cancel()

		if err == nil {
			j.metrics.IncExpiryRun(metrics.StatusSuccess)
			j.logger.Info("expiry run complete", "deleted", n, "attempt", attempt)
			return nil
		}

		lastErr = err
		j.metrics.IncExpiryRun(metrics.StatusFailed)
		if attempt == j.cfg.MaxAttempts {
			break
		}

		backoff := j.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
		j.logger.Warn("expiry run failed, retrying",
			"attempt", attempt,
			"backoff_seconds", backoff.Seconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-j.after(backoff):
		}
	}

	j.logger.Error("expiry run failed, giving up until tomorrow",
		"attempts", j.cfg.MaxAttempts,
		"error", lastErr,
	)
	return lastErr
}

// Shutdown stops the job, waiting for an in-flight run.
// It matches server.ShutdownFunc.
func (j *ExpiryJob) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return nil
	}
	cancel := j.cancel
	done := j.done
	j.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		j.logger.Warn("expiry job shutdown timed out")
		return ctx.Err()
	}
}

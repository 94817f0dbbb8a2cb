package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshTimeout bounds a single scheduled refresh
const DefaultRefreshTimeout = 30 * time.Second

// RefreshFunc reloads the catalog
type RefreshFunc func(ctx context.Context) error

// Refresher runs a catalog refresh on a standard five-field cron schedule
type Refresher struct {
	mu       sync.Mutex
	cron     *cron.Cron
	schedule string
	refresh  RefreshFunc
	timeout  time.Duration
	logger   *zap.Logger
	running  bool
	runs     int
}

// NewRefresher validates the schedule and prepares the refresher. It does not start it.
func NewRefresher(schedule string, refresh RefreshFunc, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	if refresh == nil {
		return nil, fmt.Errorf("refresh func is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		schedule: schedule,
		refresh:  refresh,
		timeout:  timeout,
		logger:   logger.Named("scheduler"),
	}, nil
}

// Start registers the refresh job and starts the cron loop. Calling Start twice is a no-op.
func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	log := cronLogger{r.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := c.AddFunc(r.schedule, r.RunOnce); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}
	c.Start()

	r.cron = c
	r.running = true
	r.logger.Info("catalog refresh scheduled", zap.String("schedule", r.schedule))
	return nil
}

// RunOnce performs a single refresh with the configured timeout
func (r *Refresher) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	err := r.refresh(ctx)

	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("scheduled refresh failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	r.logger.Info("scheduled refresh done", zap.Duration("duration", time.Since(start)))
}

// Runs returns how many refreshes have been attempted
func (r *Refresher) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// Stop halts the cron loop and waits for a running refresh to return
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()

	<-c.Stop().Done()
	r.logger.Info("catalog refresh stopped")
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

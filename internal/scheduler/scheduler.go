// Package scheduler triggers pipeline cycles on a fixed interval. Cycles
// are serialized: a tick that fires while a cycle is still running is
// skipped, so the fan-out engine's pending check never races another
// cycle's inserts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hhbot/internal/storage"
	"hhbot/pkg/logx"
)

type Config struct {
	Interval   time.Duration
	RunOnStart bool
}

// Cycle is one full pipeline run.
type Cycle func(ctx context.Context) error

type Service struct {
	cfg   Config
	cycle Cycle
	log   logx.Logger

	c *cron.Cron

	// inFlight serializes cycles across both trigger paths: cron ticks
	// and the forced RunOnStart run. The cron chain's SkipIfStillRunning
	// only covers its own jobs, so the startup run needs the same gate.
	inFlight sync.Mutex
}

func New(cfg Config, cycle Cycle, log logx.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, cycle: cycle, log: log}
}

// Start registers the interval job and starts the cron loop. When
// RunOnStart is set, one cycle is forced immediately instead of waiting
// for the first tick.
func (s *Service) Start(ctx context.Context) error {
	clog := cronLogger{log: s.log}
	s.c = cron.New(cron.WithChain(cron.SkipIfStillRunning(clog)))

	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.c.AddFunc(spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.c.Start()
	s.log.Info("scheduler started", logx.Duration("interval", s.cfg.Interval))

	if s.cfg.RunOnStart {
		go s.runOnce(ctx)
	}
	return nil
}

// Stop halts the trigger and waits for an in-flight cycle to return.
func (s *Service) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Service) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.inFlight.TryLock() {
		s.log.Debug("cycle already running, skipping")
		return
	}
	defer s.inFlight.Unlock()
	start := time.Now()
	err := s.cycle(ctx)
	switch {
	case err == nil:
		s.log.Debug("cycle ok", logx.Duration("took", time.Since(start)))
	case errors.Is(err, storage.ErrUnavailable):
		// Fatal for this cycle only; the next tick retries from scratch.
		s.log.Error("cycle aborted, store unreachable", logx.Err(err))
	case errors.Is(err, context.Canceled):
		s.log.Info("cycle canceled")
	default:
		s.log.Error("cycle failed", logx.Err(err))
	}
}

// cronLogger adapts logx to the cron.Logger interface so skipped
// overlapping runs are reported through our sink.
type cronLogger struct{ log logx.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Error("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"hhbot/pkg/logx"
)

func TestRunOnStartFiresImmediately(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})
	cycle := func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			close(done)
		}
		return nil
	}

	s := New(Config{Interval: time.Hour, RunOnStart: true}, cycle, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("initial cycle did not run")
	}
}

func TestIntervalTicks(t *testing.T) {
	var runs atomic.Int32
	cycle := func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}

	s := New(Config{Interval: 20 * time.Millisecond}, cycle, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d cycles after 2s", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	s.Stop()
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})
	cycle := func(ctx context.Context) error {
		started.Add(1)
		<-release
		return nil
	}

	s := New(Config{Interval: 20 * time.Millisecond}, cycle, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Several intervals pass while the first cycle is stuck; none of the
	// ticks may start a second one.
	time.Sleep(150 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Errorf("concurrent cycles started = %d, want 1", got)
	}
	close(release)
	s.Stop()
}

func TestRunOnStartCycleBlocksTicks(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	cycle := func(ctx context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		return nil
	}

	// The startup cycle outlives several intervals; the ticks that fire
	// meanwhile must not start a second cycle beside it.
	s := New(Config{Interval: 20 * time.Millisecond, RunOnStart: true}, cycle, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	close(release)
	s.Stop()

	if got := peak.Load(); got != 1 {
		t.Errorf("concurrent cycles in flight = %d, want 1", got)
	}
}

func TestCanceledContextSkipsCycle(t *testing.T) {
	var runs atomic.Int32
	cycle := func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Config{Interval: time.Hour, RunOnStart: true}, cycle, logx.Nop())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	if runs.Load() != 0 {
		t.Errorf("cycle ran with canceled context")
	}
}

func TestStopWaitsForInFlightCycle(t *testing.T) {
	inCycle := make(chan struct{})
	var finished atomic.Bool
	cycle := func(ctx context.Context) error {
		close(inCycle)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	}

	s := New(Config{Interval: 20 * time.Millisecond}, cycle, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-inCycle
	s.Stop()

	if !finished.Load() {
		t.Error("Stop returned before the in-flight cycle finished")
	}
}

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeCron(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*/30 * * * *", "0 */30 * * * *"},
		{"  0 9 * * 1-5 ", "0 0 9 * * 1-5"},
		{"*/5 * * * * *", "*/5 * * * * *"},
		{"@hourly", "@hourly"},
	}

	for _, tt := range tests {
		if got := normalizeCron(tt.in); got != tt.want {
			t.Errorf("normalizeCron(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context) error { return nil }

	if _, err := New("*/30 * * * *", noop, 0, nil); err != nil {
		t.Errorf("5-field expression should be accepted: %v", err)
	}
	if _, err := New("@every 1m", noop, 0, nil); err != nil {
		t.Errorf("descriptor should be accepted: %v", err)
	}
	if _, err := New("not a cron", noop, 0, nil); err == nil {
		t.Error("Expected error for invalid expression")
	}
	if _, err := New("* * * * *", nil, 0, nil); err == nil {
		t.Error("Expected error for nil run function")
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32

	s, err := New("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tick()
	}()
	<-started

	s.tick() // overlaps the first run
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("Expected 1 run, got %d", calls.Load())
	}
	if s.Skipped() != 1 || s.Runs() != 1 {
		t.Errorf("Expected runs=1 skipped=1, got runs=%d skipped=%d", s.Runs(), s.Skipped())
	}

	s.tick()
	if s.Runs() != 2 {
		t.Errorf("Run after completion should proceed, got runs=%d", s.Runs())
	}
}

func TestScheduler_RunTimeout(t *testing.T) {
	var deadline atomic.Bool

	s, _ := New("@every 1h", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return errors.New("search backend down")
	}, time.Minute, nil)

	s.tick()
	if !deadline.Load() {
		t.Error("Run context should carry the configured timeout")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	ran := make(chan struct{}, 4)

	s, err := New("@every 1s", func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !s.Next().IsZero() {
		t.Error("Next should be zero before Start")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled run did not fire")
	}
	s.Stop()
}

func TestScheduler_CancelledParentSkipsRun(t *testing.T) {
	var calls atomic.Int32
	s, _ := New("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ctx = ctx

	s.tick()
	if calls.Load() != 0 {
		t.Errorf("Expected no run after cancellation, got %d", calls.Load())
	}
}

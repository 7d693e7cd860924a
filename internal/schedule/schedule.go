// Package schedule runs the pipeline periodically on a cron expression.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
)

// RunFunc is one scheduled run
type RunFunc func(ctx context.Context) error

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler triggers RunFunc on a cron schedule. A tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	run     RunFunc
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
}

// New validates spec and creates a stopped scheduler. timeout bounds each
// run; zero means no bound.
func New(spec string, run RunFunc, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if run == nil {
		return nil, errors.New("schedule needs a run function")
	}

	spec = normalizeCron(spec)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	logger = logging.OrNop(logger)
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger.Sugar()})),
		spec:    spec,
		run:     run,
		timeout: timeout,
		logger:  logger,
		ctx:     context.Background(),
	}, nil
}

// normalizeCron prepends a seconds field to 5-field expressions
func normalizeCron(spec string) string {
	spec = strings.TrimSpace(spec)
	if len(strings.Fields(spec)) == 5 {
		return "0 " + spec
	}
	return spec
}

// Start begins scheduling. Runs use ctx as their parent.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("schedule run: %w", err)
	}
	s.cron.Start()

	s.logger.Info("scheduler started", zap.String("cron", s.spec), zap.Time("next", s.Next()))
	return nil
}

// Stop stops scheduling and waits for a run in progress
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped",
		zap.Int64("runs", s.runs.Load()),
		zap.Int64("skipped", s.skipped.Load()))
}

// Next returns the next scheduled time, zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Runs returns how many runs have started
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Skipped returns how many ticks were dropped because a run was active
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Store(false)

	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent.Err() != nil {
		return
	}

	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	n := s.runs.Add(1)
	start := time.Now()
	s.logger.Info("scheduled run started", zap.Int64("run", n))

	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Int64("run", n), zap.Error(err))
		return
	}
	s.logger.Info("scheduled run finished", zap.Int64("run", n), zap.Duration("duration", time.Since(start)))
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

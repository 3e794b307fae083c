// Package scheduler runs periodic inbox scans with single-flight
// protection.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// Status describes the scheduler's last completed run.
type Status struct {
	Running    bool
	LastRunAt  time.Time
	LastResult *core.ScanResult
	LastError  string
}

// Scheduler triggers inbox scans on a fixed interval. The scanning flag is a
// compare-and-swap gate; a tick that lands while a scan is still in flight
// is dropped rather than queued.
type Scheduler struct {
	scanner  *core.InboxScanner
	opts     core.ScanOptions
	interval time.Duration
	logger   *zap.Logger

	scanning atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a scheduler around the scanner.
func New(scanner *core.InboxScanner, opts core.ScanOptions, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		scanner:  scanner,
		opts:     opts,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins periodic scanning in a background goroutine. The first scan
// runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

// TriggerScan runs a scan now unless one is already in flight. It reports
// whether the scan was started.
func (s *Scheduler) TriggerScan(ctx context.Context) bool {
	return s.runOnce(ctx)
}

// Status returns a snapshot of the last run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Running = s.scanning.Load()
	return st
}

func (s *Scheduler) runOnce(ctx context.Context) bool {
	if !s.scanning.CompareAndSwap(false, true) {
		s.logger.Debug("scan already in flight, tick dropped")
		return false
	}
	defer s.scanning.Store(false)

	result, err := s.scanner.Scan(ctx, s.opts)

	s.mu.Lock()
	s.status.LastRunAt = time.Now()
	s.status.LastResult = result
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled scan failed", zap.Error(err))
	}
	return true
}

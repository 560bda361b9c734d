package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Seldszar/nodecg/internal/dashboard/metrics"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

// DefaultSweepInterval is how often expired sessions are cleared when
// the configuration does not say otherwise.
const DefaultSweepInterval = 15 * time.Minute

// Sweeper periodically deletes expired session rows so the table does
// not grow without bound. A transient storage failure is logged and the
// next scheduled sweep still runs.
type Sweeper struct {
	Sessions store.Sessions
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper over sessions. If interval is zero or
// negative it falls back to DefaultSweepInterval.
func NewSweeper(sessions store.Sessions, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("session sweeper started", "interval", s.Interval)
}

// Stop shuts down the worker and blocks until any in-progress sweep has
// finished.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("session sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Clear anything that expired while the process was down.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	n, err := s.Sessions.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		s.Logger.Error("failed to clear expired sessions", "error", err)
		return
	}

	metrics.SessionsSwept.Add(float64(n))
	if n > 0 {
		s.Logger.Debug("cleared expired sessions", "count", n)
	}
}

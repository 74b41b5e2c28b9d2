/*
sweeper.go - Background missing-report detection

PURPOSE:
  Periodically runs the missing-report sweep: every active hospital with
  no consumption record starting inside the trailing window gets an open
  alert, one per hospital at a time.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Sweeps once immediately on start so a restart never delays detection
  - Duplicate suppression lives in the service (HasOpenAlert)

USAGE:
  sweeper := NewSweeper(svc, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - consumption/dashboard.go: SweepMissingReports
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mspbs/medgas/consumption"
)

// Sweeper drives the periodic missing-report sweep.
type Sweeper struct {
	Service       *consumption.Service
	CheckInterval time.Duration
	WindowDays    int
	Log           zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a sweeper with the default hourly interval and a
// 30-day window.
func NewSweeper(svc *consumption.Service, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		Service:       svc,
		CheckInterval: time.Hour,
		WindowDays:    30,
		Log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	s.Log.Info().
		Dur("interval", s.CheckInterval).
		Int("window_days", s.WindowDays).
		Msg("missing-report sweeper started")
}

// Stop halts the loop and waits for an in-flight sweep to finish.
// Safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
		close(s.stop)
		s.wg.Wait()
		s.Log.Info().Msg("missing-report sweeper stopped")
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raised, err := s.Service.SweepMissingReports(ctx, s.WindowDays)
	if err != nil {
		s.Log.Error().Err(err).Msg("missing-report sweep failed")
		return
	}
	if raised > 0 {
		s.Log.Warn().Int("alerts", raised).Msg("missing-report alerts raised")
	}
}

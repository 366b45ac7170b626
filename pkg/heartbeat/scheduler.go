package heartbeat

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/log"
)

// ErrAlreadyRunning is returned when Run is called while another Run is active.
var ErrAlreadyRunning = errors.New("heartbeat: scheduler already running")

// Sender writes one heartbeat frame.
type Sender interface {
	SendHeartbeat() error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func() error

// SendHeartbeat calls f.
func (f SenderFunc) SendHeartbeat() error { return f() }

// Stats are diagnostic counters.
type Stats struct {
	// Requests is the number of Request calls.
	Requests uint64
	// Coalesced counts requests absorbed by a heartbeat that was already pending.
	Coalesced uint64
	// Emitted counts heartbeats written successfully.
	Emitted uint64
}

// Scheduler turns liveness requests and timers into heartbeat frames.
type Scheduler struct {
	mode     Mode
	interval atomic.Int64
	sender   Sender
	logger   log.Logger

	wake    chan struct{}
	reset   chan struct{}
	pending atomic.Bool
	running atomic.Bool

	requests  atomic.Uint64
	coalesced atomic.Uint64
	emitted   atomic.Uint64
}

// New creates a scheduler. Zero config values are defaulted.
func New(cfg Config, sender Sender, logger log.Logger) *Scheduler {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	s := &Scheduler{
		mode:   cfg.Mode,
		sender: sender,
		logger: logger,
		wake:   make(chan struct{}, 1),
		reset:  make(chan struct{}, 1),
	}
	s.interval.Store(int64(cfg.Interval))
	return s
}

// Mode returns the configured mode.
func (s *Scheduler) Mode() Mode { return s.mode }

// Interval returns the current interval.
func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the interval of a running or idle scheduler.
// Non-positive values are ignored.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	if time.Duration(s.interval.Swap(int64(d))) == d {
		return
	}
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Request reports that the application is alive. It never blocks.
func (s *Scheduler) Request() {
	s.requests.Add(1)
	if s.mode != ModeThrottled {
		return
	}
	if !s.pending.CompareAndSwap(false, true) {
		s.coalesced.Add(1)
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Requests:  s.requests.Load(),
		Coalesced: s.coalesced.Load(),
		Emitted:   s.emitted.Load(),
	}
}

// Run emits heartbeats until ctx is done or a send fails. Both end Run with
// a nil error.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if s.mode == ModeThrottled {
		s.runThrottled(ctx)
	} else {
		s.runFixed(ctx)
	}
	return nil
}

func (s *Scheduler) runFixed(ctx context.Context) {
	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reset:
			ticker.Reset(s.Interval())
		case <-ticker.C:
			if !s.emit() {
				return
			}
		}
	}
}

func (s *Scheduler) runThrottled(ctx context.Context) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		if !last.IsZero() && !s.waitUntil(ctx, last) {
			return
		}

		s.pending.Store(false)
		if !s.emit() {
			return
		}
		last = time.Now()
	}
}

// waitUntil sleeps until one interval has passed since last, following
// interval changes. It returns false if ctx ended first.
func (s *Scheduler) waitUntil(ctx context.Context, last time.Time) bool {
	for {
		wait := s.Interval() - time.Since(last)
		if wait <= 0 {
			return true
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-s.reset:
			timer.Stop()
		case <-timer.C:
			return true
		}
	}
}

func (s *Scheduler) emit() bool {
	if err := s.sender.SendHeartbeat(); err != nil {
		s.logger.Debug("heartbeat send failed, stopping scheduler",
			log.Err(err),
			log.Uint64("emitted", s.emitted.Load()),
		)
		return false
	}
	s.emitted.Add(1)
	return true
}

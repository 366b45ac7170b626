package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/codec"
	"github.com/bft-labs/fleetspeak/pkg/heartbeat"
	"github.com/bft-labs/fleetspeak/pkg/lifecycle"
	"github.com/bft-labs/fleetspeak/pkg/log"
)

// Session is one connection to the Fleetspeak client.
// Use New() to create it and Start() to begin exchanging messages.
type Session struct {
	cfg       Config
	logger    log.Logger
	manager   *lifecycle.DefaultManager
	in        io.ReadCloser
	out       *outbound
	pending   *pendingAcks
	scheduler *heartbeat.Scheduler
	queue     chan Message

	// mu serializes Start and Stop's state checks.
	mu     sync.Mutex
	cancel context.CancelFunc

	terminateOnce sync.Once
	done          chan struct{}

	// stopAfter unregisters the context callback; afterDone is closed once
	// that callback returned.
	stopAfter func() bool
	afterDone chan struct{}

	recvMu  sync.Mutex
	recvErr error

	delivered      atomic.Uint64
	acked          atomic.Uint64
	unknownAcks    atomic.Uint64
	lastAckLatency atomic.Int64
}

// Stats is a snapshot of session counters.
type Stats struct {
	State lifecycle.State

	// Sent and SentBytes count application frames written.
	Sent      uint64
	SentBytes uint64
	// Control counts heartbeat and startup frames written.
	Control uint64

	// Delivered counts messages handed to the queue.
	Delivered uint64
	// Queued is the number of messages waiting for Receive.
	Queued int

	Acked          uint64
	UnknownAcks    uint64
	Pending        int
	LastAckLatency time.Duration

	Heartbeat heartbeat.Stats
}

// New creates a session over the given streams in the Idle state.
// The session takes ownership of both streams once Start succeeds.
func New(in io.ReadCloser, out io.WriteCloser, cfg Config, opts ...Option) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		cfg:       cfg,
		logger:    o.logger,
		manager:   lifecycle.NewManager(o.logger, o.emitter),
		in:        in,
		pending:   newPendingAcks(),
		queue:     make(chan Message, cfg.QueueCapacity),
		done:      make(chan struct{}),
		afterDone: make(chan struct{}),
	}
	s.out = newOutbound(out, cfg.Limits, s.pending, func(err error) {
		s.terminate("write failed", err)
	})
	s.scheduler = heartbeat.New(cfg.Heartbeat, heartbeat.SenderFunc(s.out.sendHeartbeat), o.logger)
	return s, nil
}

// Start spawns the receive loop and the heartbeat scheduler.
// Cancelling ctx tears the session down like Stop, without waiting.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.manager.CanStart() {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if err := s.manager.TransitionTo(lifecycle.StateOpen, "Start() called"); err != nil {
		cancel()
		return err
	}

	s.manager.AddWorker()
	go func() {
		defer s.manager.WorkerDone()
		s.receiveLoop(runCtx)
	}()

	s.manager.AddWorker()
	go func() {
		defer s.manager.WorkerDone()
		_ = s.scheduler.Run(runCtx)
	}()

	s.stopAfter = context.AfterFunc(runCtx, func() {
		defer close(s.afterDone)
		s.terminate("context done", nil)
	})
	go s.reap()

	s.logger.Info("session started",
		log.String("service", s.cfg.Service),
		log.String("heartbeat_mode", s.cfg.Heartbeat.Mode.String()),
		log.Duration("heartbeat_interval", s.cfg.Heartbeat.Interval),
		log.Int("queue_capacity", s.cfg.QueueCapacity),
	)
	return nil
}

// Stop ends both background tasks and blocks until they have returned.
// It is safe to call concurrently with Send, Receive and other Stop calls.
// Before Start it returns ErrNotStarted and the streams stay with the caller.
func (s *Session) Stop() error {
	s.mu.Lock()
	idle := s.manager.State() == lifecycle.StateIdle
	s.mu.Unlock()
	if idle {
		return ErrNotStarted
	}

	s.terminate("Stop() called", nil)
	<-s.done
	return nil
}

// Done is closed once the session reached Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current channel state.
func (s *Session) State() lifecycle.State {
	return s.manager.State()
}

// terminate moves the session to Closing and unblocks both tasks. Only the
// first call has an effect.
func (s *Session) terminate(reason string, cause error) {
	s.terminateOnce.Do(func() {
		if cause != nil {
			s.logger.Error("session closing", log.String("reason", reason), log.Err(cause))
		} else {
			s.logger.Debug("session closing", log.String("reason", reason))
		}

		// Sends from state change callbacks must not write again.
		s.out.refuse()
		_ = s.manager.TransitionTo(lifecycle.StateClosing, reason)
		if s.cancel != nil {
			s.cancel()
		}
		if err := s.out.close(); err != nil {
			s.logger.Debug("closing outbound stream", log.Err(err))
		}
		if err := s.in.Close(); err != nil {
			s.logger.Debug("closing inbound stream", log.Err(err))
		}
	})
}

// reap waits for both tasks and completes the shutdown.
func (s *Session) reap() {
	s.manager.Wait()
	// A parent context cancellation can let both tasks return before the
	// AfterFunc teardown ran.
	s.terminate("background tasks exited", nil)

	if n := s.pending.clear(); n > 0 {
		s.logger.Debug("dropping unacknowledged frames", log.Int("count", n))
	}
	// terminate cancelled runCtx, so the callback either never runs or is
	// joined here.
	if !s.stopAfter() {
		<-s.afterDone
	}

	_ = s.manager.TransitionTo(lifecycle.StateClosed, "background tasks exited")
	s.logger.Info("session closed",
		log.Uint64("sent", s.out.sent.Load()),
		log.Uint64("delivered", s.delivered.Load()),
	)
	close(s.done)
}

// Send writes an application message addressed to Config.Service and
// returns its sequence id.
func (s *Session) Send(kind string, data []byte) (uint64, error) {
	return s.SendMessage(Message{Kind: kind, Data: data})
}

// SendMessage writes m. An empty m.Service falls back to Config.Service.
func (s *Session) SendMessage(m Message) (uint64, error) {
	if s.State() == lifecycle.StateIdle {
		return 0, ErrNotStarted
	}
	service := m.Service
	if service == "" {
		service = s.cfg.Service
	}
	return s.out.send(service, m.Kind, m.Data)
}

// Startup announces the process to the Fleetspeak client. Services send it
// once, right after Start.
func (s *Session) Startup(version string) error {
	if s.State() == lifecycle.StateIdle {
		return ErrNotStarted
	}
	payload, err := codec.Marshal(codec.NewStartupData(version))
	if err != nil {
		return fmt.Errorf("encode startup data: %w", err)
	}
	return s.out.sendStartup(payload)
}

// Heartbeat reports liveness. It never blocks; the scheduler decides when a
// heartbeat frame is actually written.
func (s *Session) Heartbeat() {
	s.scheduler.Request()
}

// SetHeartbeatInterval changes the heartbeat interval of a live session.
func (s *Session) SetHeartbeatInterval(d time.Duration) {
	s.scheduler.SetInterval(d)
}

// Receive returns the next message. It blocks until one is queued, the
// session closed, or ctx is done. Messages queued before closure are still
// returned. After a clean shutdown it returns ErrChannelClosed; after a
// receive failure, ErrReceiveFailed wrapping the cause.
func (s *Session) Receive(ctx context.Context) (Message, error) {
	return s.receive(ctx, 0)
}

// Collect is Receive for a service that is idle while it waits: it
// requests a heartbeat immediately and then every rate until a message
// arrives. A non-positive rate behaves like Receive.
func (s *Session) Collect(ctx context.Context, rate time.Duration) (Message, error) {
	return s.receive(ctx, rate)
}

func (s *Session) receive(ctx context.Context, rate time.Duration) (Message, error) {
	if s.State() == lifecycle.StateIdle {
		return Message{}, ErrNotStarted
	}

	var tick <-chan time.Time
	if rate > 0 {
		s.Heartbeat()
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case msg, ok := <-s.queue:
			if !ok {
				return Message{}, s.closedErr()
			}
			return msg, nil
		case <-tick:
			s.Heartbeat()
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// PendingAcks lists frames still waiting for acknowledgement, by sequence id.
func (s *Session) PendingAcks() []PendingAck {
	return s.pending.list()
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		State:          s.State(),
		Sent:           s.out.sent.Load(),
		SentBytes:      s.out.sentBytes.Load(),
		Control:        s.out.control.Load(),
		Delivered:      s.delivered.Load(),
		Queued:         len(s.queue),
		Acked:          s.acked.Load(),
		UnknownAcks:    s.unknownAcks.Load(),
		Pending:        s.pending.len(),
		LastAckLatency: time.Duration(s.lastAckLatency.Load()),
		Heartbeat:      s.scheduler.Stats(),
	}
}

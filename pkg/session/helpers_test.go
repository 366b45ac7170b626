package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/lifecycle"
)

// testPeer plays the Fleetspeak client on the other end of two pipes.
type testPeer struct {
	t      *testing.T
	w      *io.PipeWriter
	frames chan frame.Frame
}

// newTestSession connects a session to a peer that reads everything the
// session writes into p.frames.
func newTestSession(t *testing.T, cfg Config, opts ...Option) (*Session, *testPeer) {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	s, err := New(inR, outW, cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p := &testPeer{t: t, w: inW, frames: make(chan frame.Frame, 1024)}
	go func() {
		defer close(p.frames)
		for {
			f, err := frame.ReadFrame(outR, frame.DefaultLimits())
			if err != nil {
				return
			}
			p.frames <- f
		}
	}()

	t.Cleanup(func() {
		_ = s.Stop()
		_ = inW.Close()
		_ = outR.Close()
	})
	return s, p
}

func startTestSession(t *testing.T, cfg Config, opts ...Option) (*Session, *testPeer) {
	t.Helper()
	s, p := newTestSession(t, cfg, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, p
}

// nextAny returns the next frame the session wrote.
func (p *testPeer) nextAny() frame.Frame {
	p.t.Helper()
	select {
	case f, ok := <-p.frames:
		if !ok {
			p.t.Fatal("session closed its outbound stream")
		}
		return f
	case <-time.After(2 * time.Second):
		p.t.Fatal("timed out waiting for a frame")
	}
	return frame.Frame{}
}

// next returns the next frame that is not a heartbeat.
func (p *testPeer) next() frame.Frame {
	p.t.Helper()
	for {
		if f := p.nextAny(); f.Type != frame.TypeHeartbeat {
			return f
		}
	}
}

func (p *testPeer) write(f frame.Frame) {
	p.t.Helper()
	if err := frame.WriteFrame(p.w, f, frame.DefaultLimits()); err != nil {
		p.t.Fatalf("peer write: %v", err)
	}
}

func (p *testPeer) ack(seq uint64) {
	p.t.Helper()
	p.write(frame.Frame{Type: frame.TypeAck, Seq: seq})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not close, state %v", s.State())
	}
}

// failingWriter fails every write.
type failingWriter struct {
	err    error
	mu     sync.Mutex
	closed bool
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func (w *failingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *failingWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// mockEmitter records state changes.
type mockEmitter struct {
	mu      sync.Mutex
	changes []lifecycle.State
}

func (m *mockEmitter) OnStateChange(previous, current lifecycle.State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, current)
}

func (m *mockEmitter) Changes() []lifecycle.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lifecycle.State{}, m.changes...)
}

var errBrokenPipe = errors.New("broken pipe")

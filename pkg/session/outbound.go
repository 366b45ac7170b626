package session

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/frame"
)

// outbound serializes frame writes onto the outbound stream.
type outbound struct {
	mu     sync.Mutex
	w      io.WriteCloser
	limits frame.Limits
	// appSeq numbers application frames, ctlSeq numbers heartbeat and
	// startup frames. Both only advance on a successful write.
	appSeq  uint64
	ctlSeq  uint64
	pending *pendingAcks

	// onFail is called, without mu held, after a write failed on an open
	// channel.
	onFail func(error)

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	sent      atomic.Uint64
	sentBytes atomic.Uint64
	control   atomic.Uint64
}

func newOutbound(w io.WriteCloser, limits frame.Limits, pending *pendingAcks, onFail func(error)) *outbound {
	return &outbound{
		w:       w,
		limits:  limits,
		pending: pending,
		onFail:  onFail,
	}
}

// send writes an application frame and returns its sequence id.
func (o *outbound) send(service, kind string, data []byte) (uint64, error) {
	o.mu.Lock()
	seq, err := o.sendLocked(service, kind, data)
	o.mu.Unlock()

	o.reportFailure(err)
	return seq, err
}

func (o *outbound) sendLocked(service, kind string, data []byte) (uint64, error) {
	if o.closed.Load() {
		return 0, ErrChannelClosed
	}
	if o.appSeq == math.MaxUint64 {
		return 0, ErrProtocolExhausted
	}

	seq := o.appSeq
	buf, err := frame.Encode(frame.Frame{
		Type:    frame.TypeApplication,
		Seq:     seq,
		Service: service,
		Kind:    kind,
		Payload: data,
	}, o.limits)
	if err != nil {
		return 0, err
	}

	// Registered before the write: the ack can arrive before Write returns.
	o.pending.add(PendingAck{
		Seq:     seq,
		Service: service,
		Kind:    kind,
		Size:    len(data),
		SentAt:  time.Now(),
	})
	if err := o.write(buf); err != nil {
		o.pending.remove(seq)
		return 0, err
	}

	o.appSeq++
	o.sent.Add(1)
	o.sentBytes.Add(uint64(len(buf)))
	return seq, nil
}

func (o *outbound) sendHeartbeat() error {
	return o.sendControl(frame.TypeHeartbeat, "system", "", nil)
}

func (o *outbound) sendStartup(payload []byte) error {
	return o.sendControl(frame.TypeStartup, "system", "StartupData", payload)
}

func (o *outbound) sendControl(typ frame.Type, service, kind string, payload []byte) error {
	o.mu.Lock()
	err := o.sendControlLocked(typ, service, kind, payload)
	o.mu.Unlock()

	o.reportFailure(err)
	return err
}

func (o *outbound) sendControlLocked(typ frame.Type, service, kind string, payload []byte) error {
	if o.closed.Load() {
		return ErrChannelClosed
	}
	if o.ctlSeq == math.MaxUint64 {
		return ErrProtocolExhausted
	}

	buf, err := frame.Encode(frame.Frame{
		Type:    typ,
		Seq:     o.ctlSeq,
		Service: service,
		Kind:    kind,
		Payload: payload,
	}, o.limits)
	if err != nil {
		return err
	}
	if err := o.write(buf); err != nil {
		return err
	}

	o.ctlSeq++
	o.control.Add(1)
	return nil
}

// write must be called with mu held.
func (o *outbound) write(buf []byte) error {
	n, err := o.w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err == nil {
		return nil
	}
	if o.closed.Load() {
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	return fmt.Errorf("%w: %w", ErrChannelWriteFailed, err)
}

// reportFailure hands a write failure to onFail. It runs after mu is
// released so onFail may call back into the outbound channel.
func (o *outbound) reportFailure(err error) {
	if o.onFail != nil && errors.Is(err, ErrChannelWriteFailed) {
		o.onFail(err)
	}
}

// refuse makes later sends fail with ErrChannelClosed without touching the
// stream.
func (o *outbound) refuse() {
	o.closed.Store(true)
}

// close marks the channel closed and closes the stream, which interrupts a
// write blocked in another goroutine. It does not take mu.
func (o *outbound) close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.closeErr = o.w.Close()
	})
	return o.closeErr
}

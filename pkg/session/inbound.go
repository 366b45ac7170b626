package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/log"
)

// receiveLoop is the only reader of the inbound stream. It returns on end of
// stream, on a read or decode error, or when ctx is done.
func (s *Session) receiveLoop(ctx context.Context) {
	defer close(s.queue)

	r := bufio.NewReader(s.in)
	for {
		f, err := frame.ReadFrame(r, s.cfg.Limits)
		if err != nil {
			s.readFailed(ctx, err)
			return
		}

		switch f.Type {
		case frame.TypeApplication:
			msg := Message{Service: f.Service, Kind: f.Kind, Data: f.Payload}
			select {
			case s.queue <- msg:
				s.delivered.Add(1)
			case <-ctx.Done():
				return
			}

		case frame.TypeAck:
			s.settle(f.Seq)

		case frame.TypeHeartbeat:
			// Carries no payload and needs no answer.

		case frame.TypeStartup:
			s.logger.Debug("ignoring startup frame from peer",
				log.Uint64("seq", f.Seq),
				log.String("service", f.Service),
			)
		}
	}
}

func (s *Session) settle(seq uint64) {
	p, ok := s.pending.remove(seq)
	if !ok {
		s.unknownAcks.Add(1)
		s.logger.Debug("ack for unknown frame", log.Uint64("seq", seq))
		return
	}
	s.acked.Add(1)
	s.lastAckLatency.Store(int64(time.Since(p.SentAt)))
}

func (s *Session) readFailed(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		// Teardown closed the stream under us.
	case errors.Is(err, io.EOF):
		s.terminate("end of stream", nil)
	default:
		s.recvMu.Lock()
		s.recvErr = err
		s.recvMu.Unlock()
		s.terminate("receive failed", err)
	}
}

// closedErr is what Receive returns once the queue is closed and drained.
func (s *Session) closedErr() error {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	if s.recvErr != nil {
		return fmt.Errorf("%w: %w", ErrReceiveFailed, s.recvErr)
	}
	return ErrChannelClosed
}

// Package session is the protocol engine of a Fleetspeak service connector.
//
// A Session owns the two byte streams shared with the Fleetspeak client and
// the two background tasks that use them:
//
//   - the receive loop, the only reader of the inbound stream. It decodes
//     frames, settles acknowledgements and queues application messages in a
//     bounded channel. When the channel is full the loop blocks, which in
//     turn throttles the Fleetspeak client.
//   - the heartbeat scheduler (see package heartbeat).
//
// Writes are serialized by a mutex around encode and write, so sequence ids
// appear on the stream in the order they were assigned.
//
// # Usage
//
//	s, err := session.New(in, out, session.DefaultConfig(),
//	    session.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	defer s.Stop()
//
//	for {
//	    msg, err := s.Receive(ctx)
//	    if errors.Is(err, session.ErrChannelClosed) {
//	        return nil
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    s.Heartbeat()
//	    if _, err := s.Send("reply", handle(msg)); err != nil {
//	        return err
//	    }
//	}
//
// # Teardown
//
// Stop, a write failure, a malformed inbound frame and the end of the
// inbound stream all funnel into the same path: the state moves to Closing,
// both streams are closed to interrupt blocked I/O, and once both tasks have
// returned the state moves to Closed and Done is closed. Stop blocks until
// then.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package session

// Package heartbeat emits liveness frames to the Fleetspeak client.
//
// The Fleetspeak client kills services it believes are unresponsive. A
// Scheduler runs as a background task and calls Sender.SendHeartbeat on one
// of two cadences:
//
//   - ModeFixed emits every Interval regardless of other traffic. Request is
//     counted but otherwise ignored.
//   - ModeThrottled emits only when the application called Request, and at
//     most once per Interval. Requests that arrive while one is already
//     pending are coalesced.
//
// Request never blocks, so it can be called from a dispatch loop on every
// message.
//
// # Usage
//
//	s := heartbeat.New(heartbeat.Config{
//	    Mode:     heartbeat.ModeThrottled,
//	    Interval: time.Second,
//	}, sender, logger)
//
//	go s.Run(ctx)
//
//	for msg := range work {
//	    s.Request()
//	    handle(msg)
//	}
//
// Run ends when ctx is cancelled or when a send fails. A failed send is not
// reported: the outbound channel already drives the session toward Closed.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package heartbeat

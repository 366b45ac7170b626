// Package lifecycle provides the channel state machine and background task
// accounting used by a Fleetspeak session.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, emitter)
//
//	if !manager.CanStart() {
//	    return ErrAlreadyStarted
//	}
//	if err := manager.TransitionTo(lifecycle.StateOpen, "started"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    // ... receive loop ...
//	}()
//
//	// Teardown
//	_ = manager.TransitionTo(lifecycle.StateClosing, "stop requested")
//	manager.Wait()
//	_ = manager.TransitionTo(lifecycle.StateClosed, "tasks exited")
//
// # State Machine
//
// Valid state transitions:
//   - Idle -> Open
//   - Open -> Closing
//   - Closing -> Closed
//
// Closed is terminal.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle

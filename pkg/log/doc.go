// Package log provides the logging port used by the Fleetspeak connector.
//
// The session, heartbeat and lifecycle packages never talk to a logging
// library directly. They log through the Logger interface defined here,
// which is implemented by a zerolog adapter and by a no-op logger that
// library users get by default.
//
// # Usage
//
// Log to stderr through zerolog:
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//
// Or wrap a logger the host service already configured:
//
//	logger := log.NewZerologAdapterWithLogger(myZerolog)
//
// Tests and quiet embeddings use:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log

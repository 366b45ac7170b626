// Package codec encodes structured payloads carried inside Fleetspeak
// messages.
//
// The session engine treats Message.Data as opaque bytes. This package is
// the default choice for services that want structured data on top: CBOR
// with Core Deterministic Encoding, so the same value always produces the
// same bytes.
//
// It also defines StartupData, the payload of the Startup frame a service
// sends once after the handshake.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package codec

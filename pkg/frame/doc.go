// Package frame encodes and decodes the envelopes exchanged with the
// Fleetspeak client over the local comms channel.
//
// Every frame is length delimited:
//
//	u32 LE  body length (everything below)
//	u8      type (Application, Heartbeat, Ack, Startup)
//	u64 LE  sequence id
//	u16 LE  service length, service bytes
//	u16 LE  kind length, kind bytes
//	...     payload
//
// ReadFrame reads the prefix and the body with io.ReadFull, so short reads
// from pipes are harmless. A stream that ends exactly between two frames
// yields io.EOF; any other truncation is ErrMalformedFrame.
//
// Before the first frame both sides exchange a four byte magic number, see
// Handshake.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package frame

package session

import "github.com/bft-labs/fleetspeak/pkg/codec"

// Message is what the application sends and receives.
type Message struct {
	// Service names the peer service. On outbound messages it overrides
	// Config.Service.
	Service string
	// Kind is an application defined type tag.
	Kind string
	Data []byte
}

// Decode unmarshals CBOR encoded Data into v.
func (m Message) Decode(v any) error {
	return codec.Unmarshal(m.Data, v)
}

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// PrefixLen is the width of the length prefix.
	PrefixLen = 4

	// MinBodyLen is the body size of a frame with no service, kind or payload.
	MinBodyLen = 1 + 8 + 2 + 2
)

var (
	// ErrMalformedFrame reports a structural violation on the wire. Frame
	// boundaries cannot be recovered after it.
	ErrMalformedFrame = errors.New("frame: malformed frame")

	// ErrFrameTooLarge is returned by encoding when a frame exceeds Limits.
	// Decoding reports the same condition as ErrMalformedFrame.
	ErrFrameTooLarge = errors.New("frame: frame too large")

	// ErrInvalidFrame is returned by encoding for frames that cannot be
	// represented on the wire.
	ErrInvalidFrame = errors.New("frame: invalid frame")
)

// Type is the message type tag.
type Type uint8

const (
	TypeApplication Type = 1
	TypeHeartbeat   Type = 2
	TypeAck         Type = 3
	TypeStartup     Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeApplication:
		return "Application"
	case TypeHeartbeat:
		return "Heartbeat"
	case TypeAck:
		return "Ack"
	case TypeStartup:
		return "Startup"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known tag.
func (t Type) Valid() bool {
	return t >= TypeApplication && t <= TypeStartup
}

// Control reports whether frames of this type must carry an empty payload.
func (t Type) Control() bool {
	return t == TypeHeartbeat || t == TypeAck
}

// Frame is one unit on the wire.
type Frame struct {
	Type    Type
	Seq     uint64
	Service string
	Kind    string
	Payload []byte
}

// Limits constrains frame encode/decode memory use.
type Limits struct {
	MaxFrameBytes uint32
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxFrameBytes: 8 * 1024 * 1024}
}

func (l Limits) max() uint32 {
	if l.MaxFrameBytes == 0 {
		return DefaultLimits().MaxFrameBytes
	}
	return l.MaxFrameBytes
}

// BodyLen returns the encoded body size of f.
func BodyLen(f Frame) int {
	return MinBodyLen + len(f.Service) + len(f.Kind) + len(f.Payload)
}

// Encode serializes f including its length prefix.
func Encode(f Frame, limits Limits) ([]byte, error) {
	if !f.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidFrame, uint8(f.Type))
	}
	if f.Type.Control() && len(f.Payload) > 0 {
		return nil, fmt.Errorf("%w: %s frame with payload", ErrInvalidFrame, f.Type)
	}
	if len(f.Service) > math.MaxUint16 || len(f.Kind) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: service or kind longer than %d bytes", ErrInvalidFrame, math.MaxUint16)
	}
	body := BodyLen(f)
	if uint64(body) > uint64(limits.max()) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, body, limits.max())
	}

	buf := make([]byte, PrefixLen+body)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(body))
	buf[4] = byte(f.Type)
	binary.LittleEndian.PutUint64(buf[5:13], f.Seq)
	i := 13
	i = putString(buf, i, f.Service)
	i = putString(buf, i, f.Kind)
	copy(buf[i:], f.Payload)
	return buf, nil
}

// WriteFrame encodes f and hands it to w in a single Write call.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	buf, err := Encode(f, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame from r.
//
// It returns io.EOF, unwrapped, when r ends before the first byte of the
// prefix. Errors from r other than end of stream are returned as is.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: truncated length prefix", ErrMalformedFrame)
		}
		return Frame{}, err
	}

	n := binary.LittleEndian.Uint32(prefix[:])
	if n < MinBodyLen {
		return Frame{}, fmt.Errorf("%w: declared length %d below minimum %d", ErrMalformedFrame, n, MinBodyLen)
	}
	if n > limits.max() {
		return Frame{}, fmt.Errorf("%w: declared length %d exceeds limit %d", ErrMalformedFrame, n, limits.max())
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: stream ended inside %d byte body", ErrMalformedFrame, n)
		}
		return Frame{}, err
	}
	return decodeBody(body)
}

// Decode parses one complete encoded frame, length prefix included, as
// produced by Encode. The prefix must account for every byte after it.
func Decode(b []byte) (Frame, error) {
	if len(b) < PrefixLen {
		return Frame{}, fmt.Errorf("%w: truncated length prefix", ErrMalformedFrame)
	}
	n := binary.LittleEndian.Uint32(b[:PrefixLen])
	if uint64(n) != uint64(len(b)-PrefixLen) {
		return Frame{}, fmt.Errorf("%w: declared length %d, have %d bytes", ErrMalformedFrame, n, len(b)-PrefixLen)
	}
	return decodeBody(b[PrefixLen:])
}

// decodeBody parses a frame body without the length prefix.
func decodeBody(body []byte) (Frame, error) {
	if len(body) < MinBodyLen {
		return Frame{}, fmt.Errorf("%w: body of %d bytes", ErrMalformedFrame, len(body))
	}
	t := Type(body[0])
	if !t.Valid() {
		return Frame{}, fmt.Errorf("%w: unknown type %d", ErrMalformedFrame, body[0])
	}
	f := Frame{
		Type: t,
		Seq:  binary.LittleEndian.Uint64(body[1:9]),
	}

	i := 9
	var ok bool
	if f.Service, i, ok = getString(body, i); !ok {
		return Frame{}, fmt.Errorf("%w: service overruns body", ErrMalformedFrame)
	}
	if f.Kind, i, ok = getString(body, i); !ok {
		return Frame{}, fmt.Errorf("%w: kind overruns body", ErrMalformedFrame)
	}
	if rest := body[i:]; len(rest) > 0 {
		if t.Control() {
			return Frame{}, fmt.Errorf("%w: %s frame with %d byte payload", ErrMalformedFrame, t, len(rest))
		}
		f.Payload = append([]byte(nil), rest...)
	}
	return f, nil
}

func putString(buf []byte, i int, s string) int {
	binary.LittleEndian.PutUint16(buf[i:i+2], uint16(len(s)))
	i += 2
	return i + copy(buf[i:], s)
}

func getString(body []byte, i int) (string, int, bool) {
	if len(body)-i < 2 {
		return "", i, false
	}
	n := int(binary.LittleEndian.Uint16(body[i : i+2]))
	i += 2
	if len(body)-i < n {
		return "", i, false
	}
	return string(body[i : i+n]), i + n, true
}

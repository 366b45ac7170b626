package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is exchanged in both directions before any frame.
const Magic uint32 = 0xf1ee1001

// ErrInvalidMagic is returned when the peer answers the handshake with an
// unexpected value.
var ErrInvalidMagic = errors.New("frame: invalid magic")

type flusher interface {
	Flush() error
}

// Handshake writes the magic to w, flushes it when w buffers, and then reads
// the peer's magic from r.
func Handshake(r io.Reader, w io.Writer) error {
	if err := WriteMagic(w); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush magic: %w", err)
		}
	}
	if err := ReadMagic(r); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	return nil
}

// WriteMagic writes the four byte magic.
func WriteMagic(w io.Writer) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], Magic)
	_, err := w.Write(b[:])
	return err
}

// ReadMagic reads four bytes and checks them against Magic.
func ReadMagic(r io.Reader) error {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	if got := binary.LittleEndian.Uint32(b[:]); got != Magic {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, got)
	}
	return nil
}

package comms

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Environment variables set by the Fleetspeak client.
const (
	EnvInFD  = "FLEETSPEAK_COMMS_CHANNEL_INFD"
	EnvOutFD = "FLEETSPEAK_COMMS_CHANNEL_OUTFD"
)

var (
	// ErrNotSpecified is returned when a channel variable is unset or empty.
	ErrNotSpecified = errors.New("comms: channel not specified")

	// ErrNotParsable is returned when a channel variable is not a descriptor.
	ErrNotParsable = errors.New("comms: invalid channel value")

	// ErrInvalidDescriptor is returned when the descriptor is not usable.
	ErrInvalidDescriptor = errors.New("comms: invalid channel descriptor")
)

// FromEnv opens both channel ends named by the environment.
func FromEnv() (io.ReadCloser, io.WriteCloser, error) {
	in, err := open(EnvInFD)
	if err != nil {
		return nil, nil, err
	}
	out, err := open(EnvOutFD)
	if err != nil {
		_ = in.Close()
		return nil, nil, err
	}
	return in, out, nil
}

func lookup(name string) (uint64, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, fmt.Errorf("%w: %s", ErrNotSpecified, name)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrNotParsable, name, v)
	}
	return n, nil
}

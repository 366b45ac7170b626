//go:build unix

package comms

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

func open(name string) (*os.File, error) {
	n, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %s=%d out of range", ErrNotParsable, name, n)
	}
	fd := int(n)

	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return nil, fmt.Errorf("%w: %s=%d: %w", ErrInvalidDescriptor, name, fd, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("%w: %s=%d: set non-blocking: %w", ErrInvalidDescriptor, name, fd, err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

//go:build windows

package comms

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

func open(name string) (*os.File, error) {
	n, err := lookup(name)
	if err != nil {
		return nil, err
	}
	h := windows.Handle(uintptr(n))

	typ, err := windows.GetFileType(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%d: %w", ErrInvalidDescriptor, name, n, err)
	}
	if typ != windows.FILE_TYPE_PIPE {
		return nil, fmt.Errorf("%w: %s=%d is not a pipe", ErrInvalidDescriptor, name, n)
	}
	return os.NewFile(uintptr(h), name), nil
}

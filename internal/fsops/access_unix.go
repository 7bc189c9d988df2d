//go:build unix

package fsops

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Access reports whether the current process has the requested access to path.
func (fs *RealFS) Access(path string, mode AccessMode) error {
	var bits uint32
	if mode&AccessRead != 0 {
		bits |= unix.R_OK
	}
	if mode&AccessWrite != 0 {
		bits |= unix.W_OK
	}
	if mode&AccessExec != 0 {
		bits |= unix.X_OK
	}
	if bits == 0 {
		bits = unix.F_OK
	}

	if err := unix.Access(path, bits); err != nil {
		return fmt.Errorf("no %s access: %w", mode, err)
	}
	return nil
}

//go:build !unix

package fsops

import (
	"fmt"
	"os"
)

// Access reports whether the current process has the requested access to path.
// Without access(2), read access is probed by opening the path and write
// access by the owner write bit.
func (fs *RealFS) Access(path string, mode AccessMode) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no %s access: %w", mode, err)
	}

	if mode&AccessRead != 0 {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("no %s access: %w", mode, err)
		}
		_ = f.Close()
	}

	if mode&AccessWrite != 0 && info.Mode().Perm()&0200 == 0 {
		return fmt.Errorf("no %s access: %w", mode, os.ErrPermission)
	}

	return nil
}

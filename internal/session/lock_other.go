//go:build !unix

package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/modslayer/internal/moderr"
)

// fileLock marks the session by creating the lock file exclusively.
// A crashed session leaves the file behind; removing it by hand clears it.
type fileLock struct {
	path string
	file *os.File
}

func acquire(path string) (platformLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, heldElsewhere(path)
		}
		return nil, moderr.New(moderr.ErrConfiguration, "acquire session", path, fmt.Errorf("create lock file: %w", err))
	}
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	return &fileLock{path: path, file: f}, nil
}

func (l *fileLock) release() error {
	closeErr := l.file.Close()
	removeErr := os.Remove(l.path)
	return errors.Join(closeErr, removeErr)
}

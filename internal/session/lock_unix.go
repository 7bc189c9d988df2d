//go:build unix

package session

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/danieljhkim/modslayer/internal/moderr"
)

// flockLock holds an exclusive flock on an open lock file. The kernel drops
// the lock when the descriptor is closed, including on a crash, so a stale
// lock file never blocks a later session.
type flockLock struct {
	file *os.File
}

func acquire(path string) (platformLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, moderr.New(moderr.ErrConfiguration, "acquire session", path, fmt.Errorf("open lock file: %w", err))
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, heldElsewhere(path)
		}
		return nil, moderr.New(moderr.ErrConfiguration, "acquire session", path, fmt.Errorf("flock: %w", err))
	}

	return &flockLock{file: f}, nil
}

func (l *flockLock) release() error {
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	return errors.Join(unlockErr, closeErr)
}

// Package session guarantees that one modslayer process at a time owns the
// data directory, the registry and the mods folder.
package session

import "github.com/danieljhkim/modslayer/internal/moderr"

// Lock is a held session lock.
type Lock struct {
	path string
	lock platformLock
}

// Acquire takes the session lock at path without blocking. If another
// session holds it, Acquire fails with moderr.ErrConfiguration.
func Acquire(path string) (*Lock, error) {
	pl, err := acquire(path)
	if err != nil {
		return nil, err
	}
	return &Lock{path: path, lock: pl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release gives up the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	err := l.lock.release()
	l.lock = nil
	return err
}

type platformLock interface {
	release() error
}

func heldElsewhere(path string) error {
	return moderr.Errorf(moderr.ErrConfiguration, "acquire session", path, "another modslayer session is running")
}

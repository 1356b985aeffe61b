package session

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory lock on a session file.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for sessionPath.
func LockPath(sessionPath string) string {
	return sessionPath + ".lock"
}

// AcquireLock takes the lock for sessionPath without blocking. It returns
// ErrSessionLocked when another dispatcher already holds it.
func AcquireLock(sessionPath string) (*Lock, error) {
	path := LockPath(sessionPath)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. The lock file is left in place; removing it would
// race with a process that opened it but has not locked it yet.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}

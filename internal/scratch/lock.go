package scratch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".streamtofile.lock"

// ErrLocked is returned when another process already owns the directory.
var ErrLocked = errors.New("scratch directory is in use by another streamtofile process")

// Lock is an advisory, process-wide claim on a scratch directory.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock claims dir for this process without blocking.
func AcquireLock(dir string) (*Lock, error) {
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scratch lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{flock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil || l.flock == nil {
		return ""
	}
	return l.flock.Path()
}

// Release gives up the claim. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}

package assetlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"retake/internal/services"
)

// Locker hands out per-asset advisory locks so review operations and the
// background workflow never edit the same asset concurrently. Locks are
// flock-based files under the lock directory, one per asset ID.
type Locker struct {
	dir string
}

// New creates a locker rooted at dir.
func New(dir string) *Locker {
	return &Locker{dir: dir}
}

// Lock is a held asset lock. Release it with Unlock.
type Lock struct {
	assetID int64
	flock   *flock.Flock
}

// Acquire takes the lock for the given asset without blocking. A held lock
// surfaces as a conflict.
func (l *Locker) Acquire(assetID int64) (*Lock, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(filepath.Join(l.dir, fmt.Sprintf("asset-%d.lock", assetID)))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire asset lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "locking", "acquire",
			fmt.Sprintf("Asset %d is locked by another operation", assetID), nil)
	}
	return &Lock{assetID: assetID, flock: fl}, nil
}

// Unlock releases the lock. Safe to call on a nil lock.
func (l *Lock) Unlock() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}

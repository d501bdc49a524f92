package assetlock

import (
	"errors"
	"testing"

	"retake/internal/services"
)

func TestAcquireAndRelease(t *testing.T) {
	locker := New(t.TempDir())

	lock, err := locker.Acquire(7)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	// Released locks can be re-acquired.
	again, err := locker.Acquire(7)
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	defer again.Unlock()
}

func TestDistinctAssetsDoNotContend(t *testing.T) {
	locker := New(t.TempDir())

	first, err := locker.Acquire(1)
	if err != nil {
		t.Fatalf("Acquire(1) failed: %v", err)
	}
	defer first.Unlock()

	second, err := locker.Acquire(2)
	if err != nil {
		t.Fatalf("Acquire(2) failed: %v", err)
	}
	defer second.Unlock()
}

func TestNilLockUnlock(t *testing.T) {
	var lock *Lock
	if err := lock.Unlock(); err != nil {
		t.Fatalf("nil Unlock returned %v", err)
	}
}

func TestHeldLockConflicts(t *testing.T) {
	locker := New(t.TempDir())
	lock, err := locker.Acquire(3)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Unlock()

	if _, err := locker.Acquire(3); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("second Acquire error = %v, want conflict", err)
	}
}

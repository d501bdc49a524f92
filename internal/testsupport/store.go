package testsupport

import (
	"context"
	"testing"

	"retake/internal/config"
	"retake/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAsset creates a new asset for tests using the provided store.
func NewAsset(t testing.TB, store *queue.Store, sourcePath string) *queue.Asset {
	t.Helper()

	asset, err := store.NewAsset(context.Background(), sourcePath, "")
	if err != nil {
		t.Fatalf("store.NewAsset: %v", err)
	}
	return asset
}

// AssetWithStatus creates an asset and forces it into the given status,
// bypassing transition validation. Tests use this to stage lifecycle states
// without walking the whole pipeline.
func AssetWithStatus(t testing.TB, store *queue.Store, sourcePath string, status queue.Status) *queue.Asset {
	t.Helper()

	asset := NewAsset(t, store, sourcePath)
	asset.Status = status
	if err := store.Update(context.Background(), asset); err != nil {
		t.Fatalf("store.Update: %v", err)
	}
	return asset
}

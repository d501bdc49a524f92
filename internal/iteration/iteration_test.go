package iteration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/testsupport"
)

func completedParent(t *testing.T, store *queue.Store, baseDir string) *queue.Asset {
	t.Helper()
	src := filepath.Join(baseDir, "narration.m4a")
	final := filepath.Join(baseDir, "narration-clean.m4a")
	testsupport.WriteFile(t, src, 64)
	testsupport.WriteFile(t, final, 48)

	asset := testsupport.AssetWithStatus(t, store, src, queue.StatusCompleted)
	asset.FinalFile = final
	if err := store.Update(context.Background(), asset); err != nil {
		t.Fatalf("persist final file: %v", err)
	}
	return asset
}

func TestSpawnCreatesChildFromArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	spawner := NewSpawner(store, logging.NewNop())

	parent := completedParent(t, store, cfg.Paths.StagingDir)
	child, err := spawner.Spawn(context.Background(), parent)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	if child.SourcePath != parent.FinalFile {
		t.Fatalf("child source = %q, want parent artifact %q", child.SourcePath, parent.FinalFile)
	}
	if child.Status != queue.StatusCreated {
		t.Fatalf("child status = %q, want created", child.Status)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("child parent = %v, want %d", child.ParentID, parent.ID)
	}
	if child.IterationNumber != parent.IterationNumber+1 {
		t.Fatalf("child iteration = %d, want %d", child.IterationNumber, parent.IterationNumber+1)
	}
	if child.Title != parent.Title || child.ReferencePath != parent.ReferencePath {
		t.Fatalf("child did not inherit parent metadata: %+v", child)
	}
}

func TestSpawnRejectsIncompleteParent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	spawner := NewSpawner(store, logging.NewNop())

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 64)
	parent := testsupport.AssetWithStatus(t, store, src, queue.StatusReviewing)

	if _, err := spawner.Spawn(context.Background(), parent); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("Spawn error = %v, want conflict", err)
	}
}

func TestSpawnRequiresArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	spawner := NewSpawner(store, logging.NewNop())

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 64)
	parent := testsupport.AssetWithStatus(t, store, src, queue.StatusCompleted)

	if _, err := spawner.Spawn(context.Background(), parent); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Spawn error = %v, want validation failure", err)
	}
}

func TestLineageWalksToRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	spawner := NewSpawner(store, logging.NewNop())
	ctx := context.Background()

	root := completedParent(t, store, cfg.Paths.StagingDir)
	second, err := spawner.Spawn(ctx, root)
	if err != nil {
		t.Fatalf("Spawn second failed: %v", err)
	}
	second.Status = queue.StatusCompleted
	second.FinalFile = filepath.Join(cfg.Paths.StagingDir, "narration-clean-2.m4a")
	testsupport.WriteFile(t, second.FinalFile, 32)
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("complete second iteration: %v", err)
	}
	third, err := spawner.Spawn(ctx, second)
	if err != nil {
		t.Fatalf("Spawn third failed: %v", err)
	}

	chain, err := spawner.Lineage(ctx, third)
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("lineage length = %d, want 3", len(chain))
	}
	wantIDs := []int64{root.ID, second.ID, third.ID}
	for i, asset := range chain {
		if asset.ID != wantIDs[i] {
			t.Fatalf("lineage[%d] = %d, want %d", i, asset.ID, wantIDs[i])
		}
		if asset.IterationNumber != i {
			t.Fatalf("lineage[%d] iteration = %d, want %d", i, asset.IterationNumber, i)
		}
	}
}

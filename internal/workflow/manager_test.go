package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"retake/internal/assetlock"
	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
	"retake/internal/testsupport"
)

type stubHandler struct {
	name       string
	executeErr error
	mutate     func(*queue.Asset)
}

func (h *stubHandler) Prepare(ctx context.Context, asset *queue.Asset) error {
	asset.InitProgress(h.name, h.name+" started")
	return nil
}

func (h *stubHandler) Execute(ctx context.Context, asset *queue.Asset) error {
	if h.executeErr != nil {
		return h.executeErr
	}
	if h.mutate != nil {
		h.mutate(asset)
	}
	asset.SetProgressComplete(h.name, h.name+" finished")
	return nil
}

func (h *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Ready(h.name)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Asset {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		asset, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("reload asset: %v", err)
		}
		if asset != nil && asset.Status == want {
			return asset
		}
		time.Sleep(25 * time.Millisecond)
	}
	asset, _ := store.GetByID(context.Background(), id)
	t.Fatalf("asset never reached %s (currently %+v)", want, asset)
	return nil
}

func newTestManager(t *testing.T, set StageSet) (*Manager, *queue.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(set)
	return manager, store, cfg.Paths.StagingDir
}

func TestManagerRunsPipelineToReview(t *testing.T) {
	manager, store, stagingDir := newTestManager(t, StageSet{
		Transcriber: &stubHandler{name: "Transcribing", mutate: func(a *queue.Asset) {
			a.TranscriptJSON = `{"asset_id":1,"segments":[]}`
		}},
		Detector: &stubHandler{name: "Detecting", mutate: func(a *queue.Asset) {
			a.DuplicateGroupsJSON = `{"groups":[]}`
		}},
		Reconstructor: &stubHandler{name: "Reconstructing"},
	})

	src := filepath.Join(stagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	found := waitForStatus(t, store, asset.ID, queue.StatusDuplicatesFound)
	if found.DuplicateGroupsJSON == "" {
		t.Fatal("detector output not persisted")
	}

	// Review is operator-driven; walk the asset to confirmed and let the
	// manager pick it back up for reconstruction.
	ctx := context.Background()
	if err := store.Transition(ctx, found, queue.StatusReviewing); err != nil {
		t.Fatalf("transition to reviewing: %v", err)
	}
	if err := store.Transition(ctx, found, queue.StatusConfirmed); err != nil {
		t.Fatalf("transition to confirmed: %v", err)
	}

	completed := waitForStatus(t, store, asset.ID, queue.StatusCompleted)
	if completed.ProgressPercent != 100 {
		t.Fatalf("ProgressPercent = %v, want 100", completed.ProgressPercent)
	}
}

func TestManagerSkipsAssetWhoseLockIsHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(StageSet{
		Reconstructor: &stubHandler{name: "Reconstructing"},
	})

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	ctx := context.Background()
	asset.Status = queue.StatusConfirmed
	if err := store.Update(ctx, asset); err != nil {
		t.Fatalf("mark confirmed: %v", err)
	}

	// Hold the advisory lock the way a concurrent review command does.
	held, err := assetlock.New(cfg.LockDir()).Acquire(asset.ID)
	if err != nil {
		t.Fatalf("acquire asset lock: %v", err)
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	// The first poll fires immediately; the locked asset must not be claimed.
	time.Sleep(500 * time.Millisecond)
	current, err := store.GetByID(ctx, asset.ID)
	if err != nil {
		t.Fatalf("reload asset: %v", err)
	}
	if current.Status != queue.StatusConfirmed {
		t.Fatalf("status = %s while lock held, want %s", current.Status, queue.StatusConfirmed)
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("release asset lock: %v", err)
	}
	waitForStatus(t, store, asset.ID, queue.StatusCompleted)
}

func TestManagerRecordsStageFailure(t *testing.T) {
	stageErr := services.Wrap(services.ErrExternalTool, "transcribing", "transcribe audio",
		"Speech recognition failed", errors.New("boom"))
	manager, store, stagingDir := newTestManager(t, StageSet{
		Transcriber: &stubHandler{name: "Transcribing", executeErr: stageErr},
	})

	src := filepath.Join(stagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	failed := waitForStatus(t, store, asset.ID, queue.StatusFailed)
	if failed.ErrorMessage != "Speech recognition failed" {
		t.Fatalf("ErrorMessage = %q", failed.ErrorMessage)
	}

	summary := manager.Status(context.Background())
	if summary.LastError == "" {
		t.Fatal("Status did not record last error")
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, logging.NewNop())

	if err := manager.Start(context.Background()); err == nil {
		manager.Stop()
		t.Fatal("Start succeeded without configured stages")
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	manager, _, _ := newTestManager(t, StageSet{
		Transcriber: &stubHandler{name: "transcriber"},
		Detector:    &stubHandler{name: "detector"},
	})

	summary := manager.Status(context.Background())
	if len(summary.StageHealth) != 2 {
		t.Fatalf("StageHealth has %d entries, want 2", len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("stage %s reported unhealthy: %s", name, health.Detail)
		}
	}
	if summary.Running {
		t.Fatal("manager reported running before Start")
	}
}

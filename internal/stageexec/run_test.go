package stageexec

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

type scriptedHandler struct {
	prepareErr error
	executeErr error
	executed   bool
}

func (h *scriptedHandler) Prepare(ctx context.Context, asset *queue.Asset) error {
	return h.prepareErr
}

func (h *scriptedHandler) Execute(ctx context.Context, asset *queue.Asset) error {
	h.executed = true
	return h.executeErr
}

func TestRunAdvancesToDoneStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	handler := &scriptedHandler{}
	err := Run(context.Background(), Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "transcribe",
		Processing: queue.StatusTranscribing,
		Done:       queue.StatusTranscribed,
		Asset:      asset,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !handler.executed {
		t.Fatal("handler never executed")
	}
	if asset.Status != queue.StatusTranscribed {
		t.Fatalf("status = %q, want transcribed", asset.Status)
	}

	stored, err := store.GetByID(context.Background(), asset.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload asset: %v", err)
	}
	if stored.Status != queue.StatusTranscribed {
		t.Fatalf("persisted status = %q, want transcribed", stored.Status)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	stageErr := services.Wrap(services.ErrExternalTool, "transcribing", "transcribe audio",
		"Speech recognition failed", errors.New("boom"))
	handler := &scriptedHandler{executeErr: stageErr}
	err := Run(context.Background(), Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "transcribe",
		Processing: queue.StatusTranscribing,
		Done:       queue.StatusTranscribed,
		Asset:      asset,
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("Run error = %v, want stage error", err)
	}

	stored, getErr := store.GetByID(context.Background(), asset.ID)
	if getErr != nil || stored == nil {
		t.Fatalf("reload asset: %v", getErr)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("persisted status = %q, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("failure message not recorded")
	}
}

func TestRunKeepsHandlerStatusOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 16)
	asset := testsupport.NewAsset(t, store, src)

	handler := &overrideHandler{}
	err := Run(context.Background(), Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "detect",
		Processing: queue.StatusDetecting,
		Done:       queue.StatusDuplicatesFound,
		Asset:      asset,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if asset.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want handler override kept", asset.Status)
	}
}

type overrideHandler struct{}

func (h *overrideHandler) Prepare(ctx context.Context, asset *queue.Asset) error { return nil }

func (h *overrideHandler) Execute(ctx context.Context, asset *queue.Asset) error {
	asset.Status = queue.StatusCompleted
	return nil
}

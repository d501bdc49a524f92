package dedupe_test

import (
	"context"
	"testing"

	"retake/internal/dedupe"
	"retake/internal/logging"
	"retake/internal/plan"
	"retake/internal/queue"
	"retake/internal/testsupport"
	"retake/internal/transcript"
)

func TestStageExecutePersistsGroupsAndPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Detection.MinWords = 2
	store := testsupport.MustOpenStore(t, cfg)

	index := transcript.New(0, 1, 20, []transcript.Segment{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 10, End: 12, Text: "Hello world"},
		{Start: 12, End: 14, Text: "Goodbye now"},
	})
	transcriptJSON, err := index.Marshal()
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}

	ctx := context.Background()
	asset := testsupport.AssetWithStatus(t, store, "/audio/book.wav", queue.StatusDetecting)
	asset.TranscriptJSON = transcriptJSON
	if err := store.Update(ctx, asset); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	handler := dedupe.NewStage(cfg, store, logging.NewNop())
	if err := handler.Prepare(ctx, asset); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(ctx, asset); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	result, err := dedupe.Unmarshal(asset.DuplicateGroupsJSON)
	if err != nil {
		t.Fatalf("unmarshal groups: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(result.Groups))
	}

	proposed, err := plan.Unmarshal(asset.DeletionPlanJSON)
	if err != nil {
		t.Fatalf("unmarshal plan: %v", err)
	}
	if len(proposed.Regions) != 1 {
		t.Fatalf("expected 1 proposed region, got %d", len(proposed.Regions))
	}
	if asset.ProgressPercent != 100 {
		t.Errorf("progress = %.0f, want 100", asset.ProgressPercent)
	}
}

func TestStageExecuteRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	asset := testsupport.AssetWithStatus(t, store, "/audio/book.wav", queue.StatusDetecting)

	handler := dedupe.NewStage(cfg, store, logging.NewNop())
	if err := handler.Execute(ctx, asset); err == nil {
		t.Fatal("expected error when transcript missing")
	}
}

func TestStageHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := dedupe.NewStage(cfg, store, logging.NewNop())

	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage: %#v", health)
	}

	cfg.Detection.SimilarityThreshold = 1.5
	bad := dedupe.NewStage(cfg, store, logging.NewNop())
	if health := bad.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage for bad threshold")
	}
}

package dedupe

import (
	"context"
	"fmt"

	"log/slog"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
)

// Stage runs duplicate detection as a workflow stage.
type Stage struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	detector *Detector
}

// NewStage constructs the detection stage handler.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "dedupe"))
	}
	return &Stage{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		detector: NewDetector(cfg, logger),
	}
}

func (s *Stage) Prepare(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)
	asset.InitProgress("Detecting duplicates", "Preparing duplicate detection")
	logger.Info(
		"starting duplicate detection",
		logging.String("title", asset.Title),
		logging.String("keep_policy", s.cfg.Detection.KeepPolicy),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)

	index, err := stage.ParseTranscript(asset.TranscriptJSON)
	if err != nil {
		return err
	}

	detector := *s.detector
	detector.OnProgress = func(fraction float64) {
		snapshot := *asset
		snapshot.SetProgress("Detecting duplicates", "Comparing segments", fraction*100)
		if updateErr := s.store.Update(ctx, &snapshot); updateErr == nil {
			*asset = snapshot
		}
	}

	result := detector.Detect(index)
	groupsJSON, err := result.Marshal()
	if err != nil {
		return services.Wrap(services.ErrValidation, "detecting", "marshal groups", "Failed to serialize detection result", err)
	}

	proposed := s.detector.ProposePlan(index, result)
	planJSON, err := proposed.Marshal()
	if err != nil {
		return services.Wrap(services.ErrValidation, "detecting", "marshal plan", "Failed to serialize proposed deletion plan", err)
	}

	asset.DuplicateGroupsJSON = groupsJSON
	asset.DeletionPlanJSON = planJSON
	asset.SetProgressComplete(
		"Detecting duplicates",
		fmt.Sprintf("Found %d duplicate groups across %d segments", len(result.Groups), result.Compared),
	)

	logger.Info(
		"duplicate detection stage complete",
		logging.Int("groups", len(result.Groups)),
		logging.Int("regions_proposed", len(proposed.Regions)),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "dedupe"
	if s.cfg.Detection.SimilarityThreshold <= 0 || s.cfg.Detection.SimilarityThreshold > 1 {
		return stage.Blocked(name, "similarity threshold outside (0, 1]")
	}
	return stage.Ready(name)
}

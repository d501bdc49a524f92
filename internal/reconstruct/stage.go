package reconstruct

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/media/audio"
	"retake/internal/plan"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
)

// Stage commits the confirmed deletion plan as a workflow stage, publishing
// the final artifact into the library.
type Stage struct {
	store         *queue.Store
	cfg           *config.Config
	logger        *slog.Logger
	reconstructor *Reconstructor
}

// NewStage constructs the reconstruction stage handler.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Stage {
	primitive := audio.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewStageWithPrimitive(cfg, store, logger, primitive)
}

// NewStageWithPrimitive allows injecting the audio primitive (used in tests).
func NewStageWithPrimitive(cfg *config.Config, store *queue.Store, logger *slog.Logger, primitive audio.Primitive) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "reconstruct"))
	}
	return &Stage{
		store:         store,
		cfg:           cfg,
		logger:        stageLogger,
		reconstructor: New(primitive, cfg, logger),
	}
}

func (s *Stage) Prepare(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)
	asset.InitProgress("Reconstructing", "Preparing audio reconstruction")
	logger.Info(
		"starting reconstruction",
		logging.String("title", asset.Title),
		logging.String("source", asset.SourcePath),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)

	if strings.TrimSpace(asset.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "reconstructing", "validate inputs",
			"No source audio recorded for asset", nil)
	}
	confirmed, err := plan.Unmarshal(asset.DeletionPlanJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "reconstructing", "parse plan",
			"Deletion plan missing or invalid; rerun detection and confirm deletions", err)
	}

	reconstructor := *s.reconstructor
	reconstructor.OnProgress = func(fraction float64) {
		snapshot := *asset
		snapshot.SetProgress("Reconstructing", "Splicing kept ranges", fraction*100)
		if updateErr := s.store.Update(ctx, &snapshot); updateErr == nil {
			*asset = snapshot
		}
	}

	dest := s.finalArtifactPath(asset)
	result, err := reconstructor.Reconstruct(ctx, asset.SourcePath, confirmed, dest)
	if err != nil {
		return err
	}

	resultJSON, err := result.Marshal()
	if err != nil {
		return services.Wrap(services.ErrValidation, "reconstructing", "marshal result",
			"Failed to serialize reconstruction result", err)
	}

	// The committed artifact supersedes any review preview.
	if asset.PreviewStatus == queue.PreviewReady {
		discardPreviewArtifact(logger, asset.PreviewJSON)
	}
	asset.PreviewStatus = queue.PreviewNone
	asset.PreviewJSON = ""

	asset.FinalFile = dest
	asset.ReconstructionJSON = resultJSON
	asset.SetProgressComplete(
		"Reconstructing",
		fmt.Sprintf("Published %s (%.1fs removed)", filepath.Base(dest), result.DeletedDuration),
	)

	logger.Info(
		"reconstruction stage complete",
		logging.String("final_file", dest),
		logging.Float64("final_duration", result.FinalDuration),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "reconstruct"
	if _, err := exec.LookPath(s.cfg.FFmpegBinary()); err != nil {
		return stage.Blocked(name, "ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath(s.cfg.FFprobeBinary()); err != nil {
		return stage.Blocked(name, "ffprobe not found in PATH")
	}
	return stage.Ready(name)
}

func (s *Stage) finalArtifactPath(asset *queue.Asset) string {
	ext := filepath.Ext(asset.SourcePath)
	if ext == "" {
		ext = ".wav"
	}
	name := fmt.Sprintf("%s-clean-%d%s", sanitizeName(asset.Title), asset.IterationNumber, ext)
	return filepath.Join(s.cfg.Paths.LibraryDir, name)
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "asset"
	}
	replacer := strings.NewReplacer("/", "-", string(os.PathSeparator), "-", " ", "_")
	return replacer.Replace(name)
}

func discardPreviewArtifact(logger *slog.Logger, previewJSON string) {
	if previewJSON == "" {
		return
	}
	prior, err := Unmarshal(previewJSON)
	if err != nil || prior.ArtifactRef == "" {
		return
	}
	if err := os.Remove(prior.ArtifactRef); err != nil && !os.IsNotExist(err) && logger != nil {
		logger.Warn("failed to discard preview artifact", logging.Error(err))
	}
}

package reconstruct

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"log/slog"

	"github.com/google/uuid"

	"retake/internal/config"
	"retake/internal/fileutil"
	"retake/internal/logging"
	"retake/internal/media/audio"
	"retake/internal/plan"
	"retake/internal/services"
)

// Reconstructor produces a new audio stream from the kept regions of an
// asset. Artifacts are published atomically: the destination path only ever
// holds a complete, validated file.
type Reconstructor struct {
	primitive    audio.Primitive
	stagingDir   string
	gapTolerance float64
	logger       *slog.Logger

	// OnProgress, when set, receives the fraction of kept ranges spliced.
	// Advisory only.
	OnProgress func(fraction float64)
}

// New constructs a reconstructor from configuration.
func New(primitive audio.Primitive, cfg *config.Config, logger *slog.Logger) *Reconstructor {
	recLogger := logger
	if recLogger != nil {
		recLogger = recLogger.With(logging.String(logging.FieldComponent, "reconstruct"))
	}
	return &Reconstructor{
		primitive:    primitive,
		stagingDir:   cfg.Paths.StagingDir,
		gapTolerance: cfg.Detection.MergeGapSeconds,
		logger:       recLogger,
	}
}

// Reconstruct validates the plan, slices the kept ranges from the source in
// time order, concatenates them, and publishes the artifact at dest via an
// atomic rename. No partial artifact survives a failure or cancellation.
func (r *Reconstructor) Reconstruct(ctx context.Context, src string, p *plan.Plan, dest string) (*Result, error) {
	duration, err := r.primitive.Duration(ctx, src)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "reconstructing", "probe duration",
			"Failed to measure source duration", err)
	}

	keep, result, err := Compute(duration, p, r.gapTolerance)
	if err != nil {
		return nil, err
	}

	scratch := filepath.Join(r.stagingDir, "splice-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	ext := filepath.Ext(src)
	parts := make([]string, 0, len(keep))
	for i, rng := range keep {
		part := filepath.Join(scratch, fmt.Sprintf("part-%04d%s", i, ext))
		if err := r.primitive.Slice(ctx, src, rng.Start, rng.End, part); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "reconstructing", "slice range",
				fmt.Sprintf("Failed to slice kept range [%.3f, %.3f)", rng.Start, rng.End), err)
		}
		parts = append(parts, part)
		if r.OnProgress != nil {
			r.OnProgress(float64(i+1) / float64(len(keep)+1))
		}
	}

	partial := filepath.Join(scratch, "output"+ext)
	if err := r.primitive.Concat(ctx, parts, partial); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "reconstructing", "concat ranges",
			"Failed to join kept ranges", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if err := fileutil.MoveFile(partial, dest); err != nil {
		return nil, fmt.Errorf("publish artifact: %w", err)
	}
	result.ArtifactRef = dest
	if r.OnProgress != nil {
		r.OnProgress(1)
	}

	if r.logger != nil {
		r.logger.Info(
			"reconstruction complete",
			logging.String("artifact", dest),
			logging.Float64("final_duration", result.FinalDuration),
			logging.Float64("deleted_duration", result.DeletedDuration),
			logging.Int("splices", len(keep)),
		)
	}
	return result, nil
}

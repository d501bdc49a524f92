package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/media/audio"
	"retake/internal/plan"
	"retake/internal/queue"
	"retake/internal/reconstruct"
	"retake/internal/services"
)

// reviewableStatuses are the states in which the deletion plan may still be
// edited and previewed. Once reconstruction starts the plan is frozen.
var reviewableStatuses = map[queue.Status]struct{}{
	queue.StatusDuplicatesFound: {},
	queue.StatusReviewing:       {},
	queue.StatusConfirmed:       {},
}

// Manager generates, discards, and invalidates preview artifacts during
// review. Previews are throwaway renditions of the current deletion plan;
// the committed artifact is always rebuilt from the source.
type Manager struct {
	store         *queue.Store
	cfg           *config.Config
	logger        *slog.Logger
	reconstructor *reconstruct.Reconstructor
}

// NewManager constructs a preview manager backed by the configured ffmpeg
// binaries.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	primitive := audio.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewManagerWithPrimitive(cfg, store, logger, primitive)
}

// NewManagerWithPrimitive allows injecting the audio primitive (used in
// tests).
func NewManagerWithPrimitive(cfg *config.Config, store *queue.Store, logger *slog.Logger, primitive audio.Primitive) *Manager {
	managerLogger := logger
	if managerLogger != nil {
		managerLogger = managerLogger.With(logging.String(logging.FieldComponent, "preview"))
	}
	return &Manager{
		store:         store,
		cfg:           cfg,
		logger:        managerLogger,
		reconstructor: reconstruct.New(primitive, cfg, logger),
	}
}

// Generate renders the current deletion plan into a preview artifact and
// records its metadata on the asset. Passing segment IDs narrows the
// rendition to the regions sourced from them; none means the whole plan.
// Any prior preview for the asset is discarded first. The asset row moves
// through generating to ready, or to failed when rendering breaks.
func (m *Manager) Generate(ctx context.Context, asset *queue.Asset, segmentIDs ...int64) (*Metadata, error) {
	logger := logging.WithContext(ctx, m.logger)

	if _, ok := reviewableStatuses[asset.Status]; !ok {
		return nil, services.Wrap(services.ErrConflict, "previewing", "check status",
			fmt.Sprintf("Asset is %s; previews are only available during review", asset.Status), nil)
	}
	if strings.TrimSpace(asset.SourcePath) == "" {
		return nil, services.Wrap(services.ErrValidation, "previewing", "validate inputs",
			"No source audio recorded for asset", nil)
	}
	confirmed, err := plan.Unmarshal(asset.DeletionPlanJSON)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "previewing", "parse plan",
			"No deletion plan to preview; run detection first", err)
	}
	confirmed, err = confirmed.ScopedTo(segmentIDs)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "previewing", "scope plan",
			"Requested segments are not in the deletion plan", err)
	}

	m.removeArtifact(logger, asset.PreviewJSON)

	asset.PreviewStatus = queue.PreviewGenerating
	asset.PreviewJSON = ""
	if err := m.store.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("record preview start: %w", err)
	}

	dest := m.artifactPath(asset)
	result, err := m.reconstructor.Reconstruct(ctx, asset.SourcePath, confirmed, dest)
	if err != nil {
		asset.PreviewStatus = queue.PreviewFailed
		if updateErr := m.store.Update(ctx, asset); updateErr != nil {
			logger.Warn("failed to record preview failure", logging.Error(updateErr))
		}
		return nil, err
	}

	meta := &Metadata{
		OriginalDuration: result.OriginalDuration,
		PreviewDuration:  result.FinalDuration,
		DeletedDuration:  result.DeletedDuration,
		SegmentsDeleted:  len(confirmed.SegmentIDs()),
		Regions:          confirmed.Regions,
		ArtifactRef:      result.ArtifactRef,
		GeneratedAt:      time.Now().UTC(),
	}
	metaJSON, err := meta.Marshal()
	if err != nil {
		return nil, err
	}

	asset.PreviewStatus = queue.PreviewReady
	asset.PreviewJSON = metaJSON
	if err := m.store.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("record preview result: %w", err)
	}

	logger.Info(
		"preview ready",
		logging.Int64(logging.FieldAssetID, asset.ID),
		logging.String("artifact", dest),
		logging.Float64("preview_duration", result.FinalDuration),
	)
	return meta, nil
}

// Discard removes any preview artifact and clears the preview state. It is
// safe to call when no preview exists.
func (m *Manager) Discard(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, m.logger)

	if asset.PreviewStatus == queue.PreviewNone && asset.PreviewJSON == "" {
		return nil
	}
	m.removeArtifact(logger, asset.PreviewJSON)
	asset.PreviewStatus = queue.PreviewNone
	asset.PreviewJSON = ""
	return m.store.Update(ctx, asset)
}

// Restore removes the given segments from the asset's deletion plan, so the
// corresponding takes survive reconstruction. Any existing preview is
// discarded because it no longer reflects the plan. Returns the number of
// plan regions dropped.
func (m *Manager) Restore(ctx context.Context, asset *queue.Asset, segmentIDs []int64) (int, error) {
	logger := logging.WithContext(ctx, m.logger)

	if _, ok := reviewableStatuses[asset.Status]; !ok {
		return 0, services.Wrap(services.ErrConflict, "previewing", "check status",
			fmt.Sprintf("Asset is %s; the deletion plan can no longer be edited", asset.Status), nil)
	}
	confirmed, err := plan.Unmarshal(asset.DeletionPlanJSON)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "previewing", "parse plan",
			"No deletion plan to edit; run detection first", err)
	}

	removed := confirmed.RemoveSegments(segmentIDs)
	planJSON, err := confirmed.Marshal()
	if err != nil {
		return 0, err
	}
	asset.DeletionPlanJSON = planJSON

	m.removeArtifact(logger, asset.PreviewJSON)
	asset.PreviewStatus = queue.PreviewNone
	asset.PreviewJSON = ""

	if err := m.store.Update(ctx, asset); err != nil {
		return 0, fmt.Errorf("record restored plan: %w", err)
	}

	logger.Info(
		"segments restored",
		logging.Int64(logging.FieldAssetID, asset.ID),
		logging.Int("regions_removed", removed),
		logging.Int("regions_remaining", len(confirmed.Regions)),
	)
	return removed, nil
}

func (m *Manager) artifactPath(asset *queue.Asset) string {
	ext := filepath.Ext(asset.SourcePath)
	if ext == "" {
		ext = ".wav"
	}
	return filepath.Join(m.cfg.PreviewDir(), fmt.Sprintf("preview-%d%s", asset.ID, ext))
}

func (m *Manager) removeArtifact(logger *slog.Logger, previewJSON string) {
	if previewJSON == "" {
		return
	}
	meta, err := Unmarshal(previewJSON)
	if err != nil || meta.ArtifactRef == "" {
		return
	}
	if err := os.Remove(meta.ArtifactRef); err != nil && !os.IsNotExist(err) && logger != nil {
		logger.Warn("failed to remove preview artifact", logging.Error(err))
	}
}

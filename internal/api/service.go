package api

import (
	"context"
	"fmt"

	"log/slog"

	"retake/internal/assetlock"
	"retake/internal/config"
	"retake/internal/dedupe"
	"retake/internal/iteration"
	"retake/internal/logging"
	"retake/internal/media/audio"
	"retake/internal/preview"
	"retake/internal/queue"
	"retake/internal/reconstruct"
	"retake/internal/services"
	"retake/internal/stt"
)

// Service exposes the review operations the CLI drives: one-shot stage runs,
// plan edits, previews, commits, and iteration. Every mutating operation
// takes the per-asset lock so concurrent commands and the background daemon
// cannot interleave edits.
type Service struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	locker *assetlock.Locker

	transcriber   *stt.Stage
	detector      *dedupe.Stage
	reconstructor *reconstruct.Stage
	previews      *preview.Manager
	spawner       *iteration.Spawner
}

// NewService wires a review service from configuration.
func NewService(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Service {
	primitive := audio.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewServiceWithPrimitive(cfg, store, logger, primitive)
}

// NewServiceWithPrimitive allows injecting the audio primitive (used in
// tests).
func NewServiceWithPrimitive(cfg *config.Config, store *queue.Store, logger *slog.Logger, primitive audio.Primitive) *Service {
	serviceLogger := logger
	if serviceLogger == nil {
		serviceLogger = logging.NewNop()
	}
	return &Service{
		cfg:           cfg,
		store:         store,
		logger:        serviceLogger.With(logging.String(logging.FieldComponent, "api")),
		locker:        assetlock.New(cfg.LockDir()),
		transcriber:   stt.NewStageWithDeps(cfg, store, serviceLogger, stt.NewWhisperX(cfg), primitive),
		detector:      dedupe.NewStage(cfg, store, serviceLogger),
		reconstructor: reconstruct.NewStageWithPrimitive(cfg, store, serviceLogger, primitive),
		previews:      preview.NewManagerWithPrimitive(cfg, store, serviceLogger, primitive),
		spawner:       iteration.NewSpawner(store, serviceLogger),
	}
}

// WithProducer swaps the transcription producer (used in tests).
func (s *Service) WithProducer(producer stt.Producer, primitive audio.Primitive) {
	s.transcriber = stt.NewStageWithDeps(s.cfg, s.store, s.logger, producer, primitive)
}

// Asset loads a single asset, failing with a not-found marker when absent.
func (s *Service) Asset(ctx context.Context, id int64) (*queue.Asset, error) {
	asset, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	if asset == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "load asset",
			fmt.Sprintf("Asset %d not found", id), nil)
	}
	return asset, nil
}

// withLockedAsset loads the asset under its advisory lock and runs fn.
func (s *Service) withLockedAsset(ctx context.Context, id int64, fn func(*queue.Asset) error) error {
	lock, err := s.locker.Acquire(id)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	asset, err := s.Asset(ctx, id)
	if err != nil {
		return err
	}
	return fn(asset)
}

func requireStatus(asset *queue.Asset, want ...queue.Status) error {
	for _, status := range want {
		if asset.Status == status {
			return nil
		}
	}
	return services.Wrap(services.ErrConflict, "api", "check status",
		fmt.Sprintf("Asset %d is %s; operation requires %v", asset.ID, asset.Status, want), nil)
}

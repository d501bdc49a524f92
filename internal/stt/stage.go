package stt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"log/slog"

	"github.com/google/uuid"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/media/audio"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
	"retake/internal/transcript"
)

// Stage transcribes an asset's source audio as a workflow stage and persists
// the resulting transcript index on the asset row.
type Stage struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	producer  Producer
	primitive audio.Primitive
}

// NewStage constructs the transcription stage handler.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Stage {
	primitive := audio.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewStageWithDeps(cfg, store, logger, NewWhisperX(cfg), primitive)
}

// NewStageWithDeps allows injecting the producer and audio primitive (used
// in tests).
func NewStageWithDeps(cfg *config.Config, store *queue.Store, logger *slog.Logger, producer Producer, primitive audio.Primitive) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "transcribe"))
	}
	return &Stage{
		store:     store,
		cfg:       cfg,
		logger:    stageLogger,
		producer:  producer,
		primitive: primitive,
	}
}

func (s *Stage) Prepare(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)
	asset.InitProgress("Transcribing", "Preparing audio for transcription")
	logger.Info(
		"starting transcription",
		logging.String("title", asset.Title),
		logging.String("source", asset.SourcePath),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, asset *queue.Asset) error {
	logger := logging.WithContext(ctx, s.logger)

	if _, err := os.Stat(asset.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "check source",
			fmt.Sprintf("Source audio %s is not readable", asset.SourcePath), err)
	}

	duration, err := s.primitive.Duration(ctx, asset.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "probe duration",
			"Failed to measure source duration", err)
	}

	scratch := filepath.Join(s.cfg.Paths.StagingDir, "transcribe-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	wavPath := filepath.Join(scratch, "audio.wav")
	asset.SetProgress("Transcribing", "Extracting audio", 10)
	if updateErr := s.store.Update(ctx, asset); updateErr != nil {
		logger.Warn("failed to record progress", logging.Error(updateErr))
	}
	if err := s.primitive.ExtractWAV(ctx, asset.SourcePath, wavPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "extract audio",
			"Failed to extract mono WAV for transcription", err)
	}

	asset.SetProgress("Transcribing", "Running speech recognition", 30)
	if updateErr := s.store.Update(ctx, asset); updateErr != nil {
		logger.Warn("failed to record progress", logging.Error(updateErr))
	}
	segments, err := s.producer.Transcribe(ctx, wavPath, scratch)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "transcribe audio",
			"Speech recognition failed", err)
	}

	index := transcript.New(asset.ID, asset.IterationNumber, duration, segments)
	if index.Empty() {
		return services.Wrap(services.ErrTranscriptUnavailable, "transcribing", "build index",
			"Transcription produced no usable segments", nil)
	}
	raw, err := index.Marshal()
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	asset.TranscriptJSON = raw
	asset.SetProgressComplete(
		"Transcribing",
		fmt.Sprintf("Transcribed %d segments over %.1fs", len(index.Segments), duration),
	)

	logger.Info(
		"transcription stage complete",
		logging.Int("segments", len(index.Segments)),
		logging.Float64("duration", duration),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if _, err := exec.LookPath(s.cfg.Transcriber.Binary); err != nil {
		return stage.Blocked(name, fmt.Sprintf("%s not found in PATH", s.cfg.Transcriber.Binary))
	}
	if _, err := exec.LookPath(s.cfg.FFmpegBinary()); err != nil {
		return stage.Blocked(name, "ffmpeg not found in PATH")
	}
	return stage.Ready(name)
}

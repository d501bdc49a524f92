package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Asset) error
	Execute(context.Context, *queue.Asset) error
}

// Options controls stage execution and queue persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *queue.Store
	Handler    Handler
	StageName  string
	Processing queue.Status
	Done       queue.Status
	Asset      *queue.Asset
}

// Run executes a stage and applies queue transition semantics used by one-shot workflows.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("queue store is required")
	}
	if opts.Asset == nil {
		return fmt.Errorf("queue asset is required")
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("title", strings.TrimSpace(opts.Asset.Title)),
		logging.String("source_file", strings.TrimSpace(opts.Asset.SourcePath)),
	)

	setProcessingState(opts.Asset, opts.Processing)
	if err := opts.Store.Update(stageCtx, opts.Asset); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Asset); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Asset, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Asset); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Asset); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Asset, err)
	}

	if opts.Asset.Status == opts.Processing || opts.Asset.Status == "" {
		opts.Asset.Status = opts.Done
	}
	opts.Asset.LastHeartbeat = nil
	if err := opts.Store.Update(stageCtx, opts.Asset); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Asset.Status)),
		logging.String("progress_stage", strings.TrimSpace(opts.Asset.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(opts.Asset.ProgressMessage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *queue.Store, asset *queue.Asset, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		details := services.Details(stageErr)
		message = strings.TrimSpace(details.Message)
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}
	asset.SetFailed(message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(queue.StatusFailed)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)
	if err := store.Update(ctx, asset); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	return stageErr
}

func setProcessingState(asset *queue.Asset, processing queue.Status) {
	now := time.Now().UTC()
	asset.Status = processing
	if asset.ProgressStage == "" {
		asset.ProgressStage = deriveStageLabel(processing)
	}
	if asset.ProgressMessage == "" {
		asset.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(processing))
	}
	asset.ProgressPercent = 0
	asset.ErrorMessage = ""
	asset.LastHeartbeat = &now
}

func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

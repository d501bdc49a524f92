package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
)

func (m *Manager) processAsset(ctx context.Context, logger *slog.Logger, asset *queue.Asset) error {
	stg, ok := m.stageForStatus(asset.Status)
	if !ok {
		logger.Warn("no stage configured for status", logging.String("status", string(asset.Status)))
		m.waitForAssetOrShutdown(ctx)
		return nil
	}

	lock, err := m.locker.Acquire(asset.ID)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			logger.Debug("asset locked by another operation; retrying next poll",
				logging.Int64(logging.FieldAssetID, asset.ID))
			m.waitForAssetOrShutdown(ctx)
			return nil
		}
		m.setLastError(err)
		return err
	}
	defer lock.Unlock()

	// A review command may have moved the asset between the queue fetch and
	// the lock grant. Reload under the lock and recheck before claiming it.
	current, err := m.store.GetByID(ctx, asset.ID)
	if err != nil {
		m.setLastError(err)
		return err
	}
	if current == nil || current.Status != stg.startStatus {
		return nil
	}
	asset = current

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithAssetID(logging.WithStage(ctx, stg.name), asset.ID), requestID)
	stageLogger := logging.WithContext(stageCtx, logger)

	if err := m.transitionToProcessing(stageCtx, stg.processingStatus, asset); err != nil {
		stageLogger.Error("failed to transition asset to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, asset)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, asset *queue.Asset) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("title", strings.TrimSpace(asset.Title)),
		logging.String("source_file", strings.TrimSpace(asset.SourcePath)),
	)

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String("stage", stg.name))
		asset.Status = queue.StatusFailed
		asset.ErrorMessage = fmt.Sprintf("stage %s missing handler", stg.name)
		if err := m.store.Update(ctx, asset); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		m.setLastError(errors.New("stage handler unavailable"))
		return errors.New("stage handler unavailable")
	}

	if err := handler.Prepare(ctx, asset); err != nil {
		m.handleStageFailure(ctx, stg.name, asset, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, asset); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, handler, asset)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, asset, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if asset.Status == stg.processingStatus || asset.Status == "" {
		asset.Status = stg.doneStatus
	}
	asset.LastHeartbeat = nil
	if asset.Status == queue.StatusCompleted && asset.ProgressPercent < 100 {
		asset.ProgressPercent = 100
	}
	if err := m.store.Update(ctx, asset); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(asset.Status)),
		logging.String("progress_stage", strings.TrimSpace(asset.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(asset.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastAsset(asset)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, asset *queue.Asset) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, asset.ID)

	execErr := handler.Execute(ctx, asset)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, processing queue.Status, asset *queue.Asset) error {
	if processing == "" {
		return errors.New("processing status must not be empty")
	}

	from := asset.Status
	if err := queue.ValidateTransition(from, processing); err != nil {
		return err
	}
	m.setAssetProcessingState(asset, processing)
	if err := m.store.Update(ctx, asset); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastAsset(asset)
	return nil
}

func (m *Manager) setAssetProcessingState(asset *queue.Asset, processing queue.Status) {
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
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, asset *queue.Asset, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	asset.SetFailed(message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(queue.StatusFailed)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, asset); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastAsset(asset)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}

	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}

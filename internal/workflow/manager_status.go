package workflow

import (
	"context"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastAsset   *queue.Asset
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastAsset := m.lastAsset
	stages := append([]pipelineStage(nil), m.stages...)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastAsset != nil {
		snapshot := *lastAsset
		summary.LastAsset = &snapshot
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastAsset(asset *queue.Asset) {
	m.mu.Lock()
	if asset != nil {
		snapshot := *asset
		m.lastAsset = &snapshot
	} else {
		m.lastAsset = nil
	}
	m.mu.Unlock()
}

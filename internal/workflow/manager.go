package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"retake/internal/assetlock"
	"retake/internal/config"
	"retake/internal/queue"
	"retake/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
// Review happens between detection and reconstruction and is driven by the
// operator, so it has no handler here.
type StageSet struct {
	Transcriber   stage.Handler
	Detector      stage.Handler
	Reconstructor stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// Manager coordinates queue processing using registered stage handlers. It
// holds the asset's advisory lock for the full span of a stage run so review
// commands editing the same asset never interleave with it.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	locker       *assetlock.Locker
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	statusOrder  []queue.Status
	stageByStart map[queue.Status]pipelineStage

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastAsset *queue.Asset
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		locker:       assetlock.New(cfg.LockDir()),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage
	if set.Transcriber != nil {
		stages = append(stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusCreated,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Detector != nil {
		stages = append(stages, pipelineStage{
			name:             "detector",
			handler:          set.Detector,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusDetecting,
			doneStatus:       queue.StatusDuplicatesFound,
		})
	}
	if set.Reconstructor != nil {
		stages = append(stages, pipelineStage{
			name:             "reconstructor",
			handler:          set.Reconstructor,
			startStatus:      queue.StatusConfirmed,
			processingStatus: queue.StatusReconstructing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	stageByStart := make(map[queue.Status]pipelineStage, len(stages))
	statusOrder := make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		stageByStart[stg.startStatus] = stg
		statusOrder = append(statusOrder, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.statusOrder = statusOrder
	m.stageByStart = stageByStart
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}

package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an asset.
type Status string

const (
	StatusCreated         Status = "created"
	StatusTranscribing    Status = "transcribing"
	StatusTranscribed     Status = "transcribed"
	StatusDetecting       Status = "detecting_duplicates"
	StatusDuplicatesFound Status = "duplicates_found"
	StatusReviewing       Status = "reviewing"
	StatusConfirmed       Status = "confirmed"
	StatusReconstructing  Status = "reconstructing"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// DaemonStopReason is the error message set when assets are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusCreated,
	StatusTranscribing,
	StatusTranscribed,
	StatusDetecting,
	StatusDuplicatesFound,
	StatusReviewing,
	StatusConfirmed,
	StatusReconstructing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing:   {},
	StatusDetecting:      {},
	StatusReconstructing: {},
}

// PreviewStatus tracks the lifecycle of an asset's preview artifact.
type PreviewStatus string

const (
	PreviewNone       PreviewStatus = "none"
	PreviewGenerating PreviewStatus = "generating"
	PreviewReady      PreviewStatus = "ready"
	PreviewFailed     PreviewStatus = "failed"
)

// DatabaseHealth captures diagnostic information about the asset database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalAssets      int
	Error            string
}

// HealthSummary describes aggregated asset counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Waiting    int
	Processing int
	Reviewing  int
	Failed     int
	Completed  int
}

// Asset represents an audio asset persisted in SQLite. JSON columns hold the
// derived artifacts (transcript, duplicate groups, alignment, deletion plan,
// preview metadata, reconstruction result) so stages can coordinate through
// the store without additional state.
type Asset struct {
	ID                  int64
	SourcePath          string
	Title               string
	Status              Status
	ReferencePath       string
	TranscriptJSON      string
	DuplicateGroupsJSON string
	AlignmentJSON       string
	DeletionPlanJSON    string
	PreviewStatus       PreviewStatus
	PreviewJSON         string
	ReconstructionJSON  string
	FinalFile           string
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ProgressStage       string
	ProgressPercent     float64
	ProgressMessage     string
	LastHeartbeat       *time.Time
	ParentID            *int64
	IterationNumber     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (a Asset) IsProcessing() bool {
	_, ok := processingStatuses[a.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved to support resume scenarios.
func (a *Asset) InitProgress(stage, message string) {
	if a.ProgressStage == "" {
		a.ProgressStage = stage
	}
	a.ProgressMessage = message
	a.ProgressPercent = 0
	a.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (a *Asset) SetProgress(stage, message string, percent float64) {
	a.ProgressStage = stage
	a.ProgressMessage = message
	a.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (a *Asset) SetProgressComplete(stage, message string) {
	a.SetProgress(stage, message, 100)
}

// SetFailed marks the asset as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (a *Asset) SetFailed(message string) {
	a.Status = StatusFailed
	a.ErrorMessage = message
	a.ProgressPercent = 0
	a.ProgressMessage = message
	a.LastHeartbeat = nil
	a.ProgressStage = "Failed"
}

// IsRoot reports whether the asset is the first iteration of its lineage.
func (a Asset) IsRoot() bool {
	return a.ParentID == nil
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusCreated:
		return "planned"
	case StatusCompleted:
		return "final"
	case StatusTranscribing,
		StatusTranscribed,
		StatusDetecting,
		StatusDuplicatesFound,
		StatusReviewing,
		StatusConfirmed,
		StatusReconstructing,
		StatusFailed:
		return string(s)
	default:
		return ""
	}
}

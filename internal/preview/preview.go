package preview

import (
	"encoding/json"
	"fmt"
	"time"

	"retake/internal/plan"
)

// Metadata describes a generated preview artifact. It is persisted on the
// asset row so review tooling can show what the preview contains without
// touching the audio.
type Metadata struct {
	OriginalDuration float64       `json:"original_duration"`
	PreviewDuration  float64       `json:"preview_duration"`
	DeletedDuration  float64       `json:"deleted_duration"`
	SegmentsDeleted  int           `json:"segments_deleted"`
	Regions          []plan.Region `json:"regions"`
	ArtifactRef      string        `json:"artifact_ref"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// Marshal serializes the metadata for persistence.
func (m *Metadata) Marshal() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal preview metadata: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores metadata persisted with Marshal.
func Unmarshal(raw string) (*Metadata, error) {
	if raw == "" {
		return nil, fmt.Errorf("preview metadata payload is empty")
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal preview metadata: %w", err)
	}
	return &m, nil
}

package dedupe

import (
	"encoding/json"
	"fmt"
)

// Group is a cluster of segments judged to be the same content spoken more
// than once. Exactly one member is kept; the rest are duplicate takes.
type Group struct {
	GroupID          int     `json:"group_id"`
	MemberSegmentIDs []int64 `json:"member_segment_ids"`
	KeptSegmentID    int64   `json:"kept_segment_id"`
	SimilarityScore  float64 `json:"similarity_score"`
}

// Result is the output of one detection pass over an asset's transcript.
type Result struct {
	AssetID    int64   `json:"asset_id"`
	Generation int     `json:"generation"`
	Groups     []Group `json:"groups"`
	// Compared is the number of segments that entered pairwise comparison
	// after the minimum word filter.
	Compared int `json:"compared"`
	// Skipped counts segments excluded by the minimum word filter.
	Skipped int `json:"skipped"`
}

// DuplicateSegmentIDs returns the IDs of all non-kept group members in
// ascending order of appearance.
func (r *Result) DuplicateSegmentIDs() []int64 {
	var ids []int64
	for _, group := range r.Groups {
		for _, id := range group.MemberSegmentIDs {
			if id != group.KeptSegmentID {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Marshal serializes the result for persistence.
func (r *Result) Marshal() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal detection result: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores a result persisted with Marshal.
func Unmarshal(raw string) (*Result, error) {
	if raw == "" {
		return nil, fmt.Errorf("detection result payload is empty")
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("unmarshal detection result: %w", err)
	}
	return &r, nil
}

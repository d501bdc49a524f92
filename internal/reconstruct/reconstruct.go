package reconstruct

import (
	"encoding/json"
	"fmt"

	"retake/internal/plan"
	"retake/internal/services"
)

// BoundaryPoint records where a kept range begins in the original timeline
// and where it lands in the reconstructed one.
type BoundaryPoint struct {
	OldTime float64 `json:"old_time"`
	NewTime float64 `json:"new_time"`
}

// Range is a kept span of the original timeline.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the range length in seconds.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Result describes one reconstruction run. FinalDuration plus DeletedDuration
// equals the original duration within a millisecond.
type Result struct {
	OriginalDuration float64         `json:"original_duration"`
	FinalDuration    float64         `json:"final_duration"`
	DeletedDuration  float64         `json:"deleted_duration"`
	BoundaryMap      []BoundaryPoint `json:"boundary_map"`
	ArtifactRef      string          `json:"artifact_ref"`
}

// TranslateTime maps an original timestamp to its position in the
// reconstructed audio. Deleted timestamps report ok=false.
func (r *Result) TranslateTime(oldTime float64) (float64, bool) {
	for i := len(r.BoundaryMap) - 1; i >= 0; i-- {
		point := r.BoundaryMap[i]
		if oldTime < point.OldTime {
			continue
		}
		offset := oldTime - point.OldTime
		// The kept range ends where the next one begins in new time.
		limit := r.FinalDuration
		if i+1 < len(r.BoundaryMap) {
			limit = r.BoundaryMap[i+1].NewTime
		}
		if point.NewTime+offset > limit {
			return 0, false
		}
		return point.NewTime + offset, true
	}
	return 0, false
}

// Marshal serializes the result for persistence.
func (r *Result) Marshal() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal reconstruction result: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores a result persisted with Marshal.
func Unmarshal(raw string) (*Result, error) {
	if raw == "" {
		return nil, fmt.Errorf("reconstruction result payload is empty")
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("unmarshal reconstruction result: %w", err)
	}
	return &r, nil
}

// Compute validates the plan against the asset duration, merges regions
// within the gap tolerance, and walks the complement to produce the kept
// ranges and boundary map. It is a pure function of its inputs, so rerunning
// it yields identical output.
func Compute(duration float64, p *plan.Plan, gapTolerance float64) ([]Range, *Result, error) {
	if duration <= 0 {
		return nil, nil, services.Wrap(services.ErrBoundary, "reconstructing", "validate plan",
			fmt.Sprintf("Asset duration %.3f is not positive", duration), nil)
	}

	merged := &plan.Plan{}
	if p != nil {
		merged.AssetID = p.AssetID
		merged.Regions = append([]plan.Region(nil), p.Regions...)
	}
	merged.Normalize(gapTolerance)
	if err := merged.Validate(duration); err != nil {
		return nil, nil, services.Wrap(services.ErrBoundary, "reconstructing", "validate plan",
			"Deletion plan violates asset bounds", err)
	}

	var (
		keep    []Range
		cursor  float64
		newTime float64
		result  = &Result{OriginalDuration: duration}
	)
	appendKeep := func(start, end float64) {
		if end-start <= 0 {
			return
		}
		keep = append(keep, Range{Start: start, End: end})
		result.BoundaryMap = append(result.BoundaryMap, BoundaryPoint{OldTime: start, NewTime: newTime})
		newTime += end - start
	}

	for _, region := range merged.Regions {
		appendKeep(cursor, region.Start)
		cursor = region.End
	}
	appendKeep(cursor, duration)

	result.FinalDuration = newTime
	result.DeletedDuration = duration - newTime
	return keep, result, nil
}

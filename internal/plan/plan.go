package plan

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Region is one time span slated for removal from an asset.
type Region struct {
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Reason           string  `json:"reason"`
	SourceSegmentIDs []int64 `json:"source_segment_ids,omitempty"`
}

// Duration returns the region length in seconds.
func (r Region) Duration() float64 {
	return r.End - r.Start
}

// Plan is the ordered, non-overlapping set of deletion regions for one asset.
// It is proposed by detection, edited by restore operations, and confirmed
// before reconstruction.
type Plan struct {
	AssetID int64    `json:"asset_id"`
	Regions []Region `json:"regions"`
}

// Normalize sorts regions by start time and merges any pair separated by less
// than gapTolerance seconds, so reconstruction avoids many tiny splices.
// Merged regions union their source segment IDs and keep the first reason.
func (p *Plan) Normalize(gapTolerance float64) {
	if len(p.Regions) == 0 {
		return
	}
	sort.SliceStable(p.Regions, func(i, j int) bool {
		return p.Regions[i].Start < p.Regions[j].Start
	})

	merged := p.Regions[:1]
	for _, region := range p.Regions[1:] {
		last := &merged[len(merged)-1]
		if region.Start-last.End <= gapTolerance {
			if region.End > last.End {
				last.End = region.End
			}
			last.SourceSegmentIDs = mergeIDs(last.SourceSegmentIDs, region.SourceSegmentIDs)
			continue
		}
		merged = append(merged, region)
	}
	p.Regions = merged
}

// Validate checks the structural invariants: regions sorted ascending,
// non-overlapping, each with positive length, all within [0, duration].
func (p *Plan) Validate(duration float64) error {
	var prevEnd float64
	for i, region := range p.Regions {
		if region.End <= region.Start {
			return fmt.Errorf("region %d has non-positive length [%.3f, %.3f]", i, region.Start, region.End)
		}
		if region.Start < 0 || region.End > duration {
			return fmt.Errorf("region %d [%.3f, %.3f] outside asset bounds [0, %.3f]", i, region.Start, region.End, duration)
		}
		if i > 0 && region.Start < prevEnd {
			return fmt.Errorf("region %d overlaps predecessor ending at %.3f", i, prevEnd)
		}
		prevEnd = region.End
	}
	return nil
}

// DeletedDuration returns the summed length of all regions.
func (p *Plan) DeletedDuration() float64 {
	var total float64
	for _, region := range p.Regions {
		total += region.Duration()
	}
	return total
}

// SegmentIDs returns the distinct source segment IDs across all regions,
// ordered ascending.
func (p *Plan) SegmentIDs() []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, region := range p.Regions {
		for _, id := range region.SourceSegmentIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RemoveSegments drops every region sourced entirely from the given segment
// IDs; regions sourced from a mix keep only their remaining IDs but stay in
// the plan. Returns the number of regions removed.
func (p *Plan) RemoveSegments(segmentIDs []int64) int {
	if len(segmentIDs) == 0 {
		return 0
	}
	doomed := make(map[int64]struct{}, len(segmentIDs))
	for _, id := range segmentIDs {
		doomed[id] = struct{}{}
	}

	var removed int
	kept := p.Regions[:0]
	for _, region := range p.Regions {
		remaining := region.SourceSegmentIDs[:0]
		for _, id := range region.SourceSegmentIDs {
			if _, ok := doomed[id]; !ok {
				remaining = append(remaining, id)
			}
		}
		if len(region.SourceSegmentIDs) > 0 && len(remaining) == 0 {
			removed++
			continue
		}
		region.SourceSegmentIDs = remaining
		kept = append(kept, region)
	}
	p.Regions = kept
	return removed
}

// ScopedTo returns a copy of the plan holding only the regions sourced from
// at least one of the given segment IDs. An empty ID set returns the plan
// itself. Requesting an ID no region is sourced from is an error.
func (p *Plan) ScopedTo(segmentIDs []int64) (*Plan, error) {
	if len(segmentIDs) == 0 {
		return p, nil
	}
	wanted := make(map[int64]struct{}, len(segmentIDs))
	for _, id := range segmentIDs {
		wanted[id] = struct{}{}
	}

	scoped := &Plan{AssetID: p.AssetID}
	for _, region := range p.Regions {
		matched := false
		for _, id := range region.SourceSegmentIDs {
			if _, ok := wanted[id]; ok {
				matched = true
				delete(wanted, id)
			}
		}
		if matched {
			scoped.Regions = append(scoped.Regions, region)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]int64, 0, len(wanted))
		for id := range wanted {
			unknown = append(unknown, id)
		}
		sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
		return nil, fmt.Errorf("segment %d is not part of the deletion plan", unknown[0])
	}
	return scoped, nil
}

// Empty reports whether the plan holds no regions.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Regions) == 0
}

// Marshal serializes the plan for persistence.
func (p *Plan) Marshal() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal deletion plan: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores a plan persisted with Marshal.
func Unmarshal(raw string) (*Plan, error) {
	if raw == "" {
		return nil, fmt.Errorf("deletion plan payload is empty")
	}
	var p Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal deletion plan: %w", err)
	}
	return &p, nil
}

func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, ids := range [][]int64{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

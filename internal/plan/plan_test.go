package plan

import (
	"math"
	"testing"
)

func TestNormalizeSortsAndMergesWithinGap(t *testing.T) {
	p := &Plan{
		AssetID: 1,
		Regions: []Region{
			{Start: 30.0, End: 32.0, SourceSegmentIDs: []int64{5}},
			{Start: 10.0, End: 12.0, SourceSegmentIDs: []int64{2}},
			{Start: 12.1, End: 14.0, SourceSegmentIDs: []int64{3}},
		},
	}
	p.Normalize(0.25)
	if len(p.Regions) != 2 {
		t.Fatalf("expected 2 regions after merge, got %d", len(p.Regions))
	}
	first := p.Regions[0]
	if first.Start != 10.0 || first.End != 14.0 {
		t.Errorf("merged region = [%.2f, %.2f], want [10.00, 14.00]", first.Start, first.End)
	}
	if len(first.SourceSegmentIDs) != 2 || first.SourceSegmentIDs[0] != 2 || first.SourceSegmentIDs[1] != 3 {
		t.Errorf("merged source IDs = %v, want [2 3]", first.SourceSegmentIDs)
	}
	if p.Regions[1].Start != 30.0 {
		t.Errorf("second region start = %.2f, want 30.00", p.Regions[1].Start)
	}
}

func TestNormalizeKeepsRegionsBeyondGap(t *testing.T) {
	p := &Plan{Regions: []Region{
		{Start: 0, End: 1},
		{Start: 1.5, End: 2.5},
	}}
	p.Normalize(0.25)
	if len(p.Regions) != 2 {
		t.Fatalf("expected regions to stay separate, got %d", len(p.Regions))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		regions []Region
		wantErr bool
	}{
		{"valid", []Region{{Start: 1, End: 2}, {Start: 3, End: 4}}, false},
		{"empty", nil, false},
		{"zero length", []Region{{Start: 1, End: 1}}, true},
		{"inverted", []Region{{Start: 2, End: 1}}, true},
		{"negative start", []Region{{Start: -0.5, End: 1}}, true},
		{"past end", []Region{{Start: 9, End: 11}}, true},
		{"overlap", []Region{{Start: 1, End: 3}, {Start: 2, End: 4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plan{Regions: tt.regions}
			err := p.Validate(10.0)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeletedDuration(t *testing.T) {
	p := &Plan{Regions: []Region{
		{Start: 1, End: 2.5},
		{Start: 5, End: 6},
	}}
	if got := p.DeletedDuration(); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("DeletedDuration() = %.4f, want 2.5", got)
	}
}

func TestRemoveSegments(t *testing.T) {
	p := &Plan{Regions: []Region{
		{Start: 1, End: 2, SourceSegmentIDs: []int64{10}},
		{Start: 3, End: 4, SourceSegmentIDs: []int64{11, 12}},
		{Start: 5, End: 6, SourceSegmentIDs: []int64{13}},
	}}
	removed := p.RemoveSegments([]int64{10, 11})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(p.Regions) != 2 {
		t.Fatalf("regions remaining = %d, want 2", len(p.Regions))
	}
	if got := p.Regions[0].SourceSegmentIDs; len(got) != 1 || got[0] != 12 {
		t.Errorf("mixed region kept IDs = %v, want [12]", got)
	}
}

func TestRemoveSegmentsAllGone(t *testing.T) {
	p := &Plan{Regions: []Region{
		{Start: 1, End: 2, SourceSegmentIDs: []int64{10}},
	}}
	p.RemoveSegments([]int64{10})
	if !p.Empty() {
		t.Errorf("expected empty plan after removing only region")
	}
}

func TestSegmentIDs(t *testing.T) {
	p := &Plan{Regions: []Region{
		{Start: 1, End: 2, SourceSegmentIDs: []int64{12, 10}},
		{Start: 3, End: 4, SourceSegmentIDs: []int64{10, 11}},
	}}
	got := p.SegmentIDs()
	want := []int64{10, 11, 12}
	if len(got) != len(want) {
		t.Fatalf("SegmentIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SegmentIDs() = %v, want %v", got, want)
		}
	}
}

func TestScopedTo(t *testing.T) {
	p := &Plan{AssetID: 4, Regions: []Region{
		{Start: 1, End: 2, SourceSegmentIDs: []int64{10}},
		{Start: 3, End: 4, SourceSegmentIDs: []int64{11, 12}},
		{Start: 5, End: 6, SourceSegmentIDs: []int64{13}},
	}}

	scoped, err := p.ScopedTo([]int64{11, 13})
	if err != nil {
		t.Fatalf("ScopedTo() error = %v", err)
	}
	if len(scoped.Regions) != 2 {
		t.Fatalf("scoped regions = %d, want 2", len(scoped.Regions))
	}
	if scoped.Regions[0].Start != 3 || scoped.Regions[1].Start != 5 {
		t.Errorf("scoped regions = %+v, want the 3s and 5s regions", scoped.Regions)
	}
	if scoped.AssetID != 4 {
		t.Errorf("scoped AssetID = %d, want 4", scoped.AssetID)
	}
	// The source plan is untouched.
	if len(p.Regions) != 3 {
		t.Errorf("source regions = %d, want 3", len(p.Regions))
	}
}

func TestScopedToEmptySetReturnsWholePlan(t *testing.T) {
	p := &Plan{Regions: []Region{{Start: 1, End: 2, SourceSegmentIDs: []int64{10}}}}
	scoped, err := p.ScopedTo(nil)
	if err != nil {
		t.Fatalf("ScopedTo() error = %v", err)
	}
	if scoped != p {
		t.Errorf("expected the plan itself for an empty ID set")
	}
}

func TestScopedToUnknownSegment(t *testing.T) {
	p := &Plan{Regions: []Region{{Start: 1, End: 2, SourceSegmentIDs: []int64{10}}}}
	if _, err := p.ScopedTo([]int64{10, 99}); err == nil {
		t.Errorf("expected error for segment outside the plan")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p := &Plan{AssetID: 7, Regions: []Region{
		{Start: 1.25, End: 3.5, Reason: "duplicate_take", SourceSegmentIDs: []int64{4}},
	}}
	raw, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	back, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.AssetID != 7 || len(back.Regions) != 1 || back.Regions[0].Reason != "duplicate_take" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	if _, err := Unmarshal(""); err == nil {
		t.Errorf("expected error for empty payload")
	}
}

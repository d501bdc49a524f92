package reconstruct

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"retake/internal/logging"
	"retake/internal/plan"
	"retake/internal/services"
	"retake/internal/testsupport"
)

func singleRegionPlan(start, end float64) *plan.Plan {
	return &plan.Plan{
		AssetID: 1,
		Regions: []plan.Region{
			{Start: start, End: end, Reason: "duplicate_take", SourceSegmentIDs: []int64{7}},
		},
	}
}

func TestComputeSingleDeletion(t *testing.T) {
	keep, result, err := Compute(20, singleRegionPlan(10, 12), 0.25)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantKeep := []Range{{Start: 0, End: 10}, {Start: 12, End: 20}}
	if !reflect.DeepEqual(keep, wantKeep) {
		t.Fatalf("kept ranges = %v, want %v", keep, wantKeep)
	}
	if result.FinalDuration != 18 {
		t.Fatalf("FinalDuration = %v, want 18", result.FinalDuration)
	}
	if result.DeletedDuration != 2 {
		t.Fatalf("DeletedDuration = %v, want 2", result.DeletedDuration)
	}

	wantBoundary := []BoundaryPoint{{OldTime: 0, NewTime: 0}, {OldTime: 12, NewTime: 10}}
	if !reflect.DeepEqual(result.BoundaryMap, wantBoundary) {
		t.Fatalf("BoundaryMap = %v, want %v", result.BoundaryMap, wantBoundary)
	}
}

func TestComputeConservesDuration(t *testing.T) {
	p := &plan.Plan{AssetID: 1, Regions: []plan.Region{
		{Start: 1.25, End: 2.5, Reason: "duplicate_take"},
		{Start: 5.1, End: 5.2, Reason: "duplicate_take"},
		{Start: 9.9, End: 11.33, Reason: "duplicate_take"},
	}}
	_, result, err := Compute(17.77, p, 0.25)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	drift := math.Abs(result.OriginalDuration - result.FinalDuration - result.DeletedDuration)
	if drift > 0.001 {
		t.Fatalf("duration drift %v exceeds one millisecond", drift)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	p := &plan.Plan{AssetID: 1, Regions: []plan.Region{
		{Start: 3, End: 4, Reason: "duplicate_take"},
		{Start: 4.1, End: 6, Reason: "duplicate_take"},
	}}
	keepA, resultA, err := Compute(10, p, 0.25)
	if err != nil {
		t.Fatalf("first Compute failed: %v", err)
	}
	keepB, resultB, err := Compute(10, p, 0.25)
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}
	if !reflect.DeepEqual(keepA, keepB) || !reflect.DeepEqual(resultA, resultB) {
		t.Fatal("repeated Compute produced different output")
	}
}

func TestComputeRejectsOutOfBounds(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		p        *plan.Plan
	}{
		{"region beyond duration", 20, singleRegionPlan(18, 25)},
		{"negative start", 20, singleRegionPlan(-1, 5)},
		{"zero duration", 0, singleRegionPlan(0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Compute(tc.duration, tc.p, 0.25); !errors.Is(err, services.ErrBoundary) {
				t.Fatalf("Compute error = %v, want boundary violation", err)
			}
		})
	}
}

func TestComputeEmptyPlan(t *testing.T) {
	keep, result, err := Compute(12.5, &plan.Plan{AssetID: 1}, 0.25)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(keep) != 1 || keep[0].Start != 0 || keep[0].End != 12.5 {
		t.Fatalf("kept ranges = %v, want single full range", keep)
	}
	if result.DeletedDuration != 0 {
		t.Fatalf("DeletedDuration = %v, want 0", result.DeletedDuration)
	}
}

func TestTranslateTime(t *testing.T) {
	_, result, err := Compute(20, singleRegionPlan(10, 12), 0.25)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	cases := []struct {
		oldTime float64
		want    float64
		ok      bool
	}{
		{5, 5, true},
		{12, 10, true},
		{15.5, 13.5, true},
		{11, 0, false},
	}
	for _, tc := range cases {
		got, ok := result.TranslateTime(tc.oldTime)
		if ok != tc.ok || (ok && math.Abs(got-tc.want) > 1e-9) {
			t.Fatalf("TranslateTime(%v) = (%v, %v), want (%v, %v)", tc.oldTime, got, ok, tc.want, tc.ok)
		}
	}
}

func TestReconstructPublishesArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	primitive := &testsupport.FakePrimitive{FixedDuration: 20}
	reconstructor := New(primitive, cfg, logging.NewNop())

	var fractions []float64
	reconstructor.OnProgress = func(fraction float64) {
		fractions = append(fractions, fraction)
	}

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 64)
	dest := filepath.Join(cfg.Paths.LibraryDir, "narration-clean.m4a")

	result, err := reconstructor.Reconstruct(context.Background(), src, singleRegionPlan(10, 12), dest)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if got, want := string(data), "[0.000-10.000][12.000-20.000]"; got != want {
		t.Fatalf("artifact content = %q, want %q", got, want)
	}
	if result.ArtifactRef != dest {
		t.Fatalf("ArtifactRef = %q, want %q", result.ArtifactRef, dest)
	}
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("progress fractions = %v, want terminal 1", fractions)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress went backward: %v", fractions)
		}
	}

	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "splice-") {
			t.Fatalf("scratch dir %s survived the run", entry.Name())
		}
	}
}

func TestReconstructSliceFailureLeavesNoArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	primitive := &testsupport.FakePrimitive{FixedDuration: 20, SliceErr: errors.New("boom")}
	reconstructor := New(primitive, cfg, logging.NewNop())

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 64)
	dest := filepath.Join(cfg.Paths.LibraryDir, "narration-clean.m4a")

	_, err := reconstructor.Reconstruct(context.Background(), src, singleRegionPlan(10, 12), dest)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("Reconstruct error = %v, want external tool failure", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("destination exists after failure: %v", statErr)
	}
}

func TestReconstructRejectsInvalidPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	primitive := &testsupport.FakePrimitive{FixedDuration: 20}
	reconstructor := New(primitive, cfg, logging.NewNop())

	src := filepath.Join(cfg.Paths.StagingDir, "narration.m4a")
	testsupport.WriteFile(t, src, 64)
	dest := filepath.Join(cfg.Paths.LibraryDir, "narration-clean.m4a")

	_, err := reconstructor.Reconstruct(context.Background(), src, singleRegionPlan(18, 25), dest)
	if !errors.Is(err, services.ErrBoundary) {
		t.Fatalf("Reconstruct error = %v, want boundary violation", err)
	}
	if primitive.SliceCalls != 0 {
		t.Fatalf("sliced %d ranges before validation failed", primitive.SliceCalls)
	}
}

func TestResultMarshalRoundTrip(t *testing.T) {
	_, result, err := Compute(20, singleRegionPlan(10, 12), 0.25)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	result.ArtifactRef = "/library/narration-clean.m4a"

	raw, err := result.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(result, restored) {
		t.Fatalf("round trip mismatch: %+v vs %+v", result, restored)
	}
}

package transcript

import "testing"

func TestNewOrdersAndIndexesSegments(t *testing.T) {
	idx := New(1, 0, 20, []Segment{
		{Start: 10, End: 12, Text: "second"},
		{Start: 0, End: 2, Text: "first"},
	})
	if len(idx.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(idx.Segments))
	}
	if idx.Segments[0].Text != "first" || idx.Segments[1].Text != "second" {
		t.Fatalf("segments not ordered by start time: %+v", idx.Segments)
	}
	for i, seg := range idx.Segments {
		if seg.OrderIndex != i {
			t.Fatalf("segment %d has order index %d", i, seg.OrderIndex)
		}
		if seg.AssetID != 1 {
			t.Fatalf("segment %d missing asset id", i)
		}
		if seg.ID == 0 {
			t.Fatalf("segment %d missing id", i)
		}
	}
}

func TestNewDropsMalformedSegments(t *testing.T) {
	idx := New(1, 0, 20, []Segment{
		{Start: 0, End: 2, Text: "good"},
		{Start: 5, End: 5, Text: "zero length"},
		{Start: 8, End: 6, Text: "reversed"},
	})
	if len(idx.Segments) != 1 {
		t.Fatalf("expected 1 usable segment, got %d", len(idx.Segments))
	}
	if len(idx.Anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(idx.Anomalies))
	}
}

func TestNewDropsOverlappingSegments(t *testing.T) {
	idx := New(1, 0, 20, []Segment{
		{Start: 0, End: 5, Text: "first"},
		{Start: 3, End: 7, Text: "overlaps"},
		{Start: 7, End: 9, Text: "clear"},
	})
	if len(idx.Segments) != 2 {
		t.Fatalf("expected overlap dropped, got %d segments", len(idx.Segments))
	}
	if len(idx.Anomalies) != 1 {
		t.Fatalf("expected overlap anomaly, got %d", len(idx.Anomalies))
	}
}

func TestNewClampsWordsToSegment(t *testing.T) {
	idx := New(1, 0, 20, []Segment{
		{
			Start: 0, End: 2, Text: "hello world",
			Words: []Word{
				{Word: "hello", Start: 0, End: 0.8, Confidence: 0.99},
				{Word: "world", Start: 1.9, End: 2.5, Confidence: 0.97},
			},
		},
	})
	if len(idx.Segments[0].Words) != 1 {
		t.Fatalf("expected out-of-range word dropped, got %d words", len(idx.Segments[0].Words))
	}
	if len(idx.Anomalies) != 1 {
		t.Fatalf("expected word anomaly, got %d", len(idx.Anomalies))
	}
}

func TestEmptyIndexIsNotAnError(t *testing.T) {
	idx := New(1, 0, 0, nil)
	if !idx.Empty() {
		t.Fatal("expected empty index")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	idx := New(3, 1, 14, []Segment{
		{Start: 0, End: 2, Text: "Hello world"},
		{Start: 10, End: 12, Text: "Hello world"},
		{Start: 12, End: 14, Text: "Goodbye"},
	})
	raw, err := idx.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored.AssetID != 3 || restored.Generation != 1 {
		t.Fatalf("identity lost: %+v", restored)
	}
	if len(restored.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(restored.Segments))
	}
	if _, ok := restored.SegmentByID(idx.Segments[1].ID); !ok {
		t.Fatal("expected segment lookup by id after round trip")
	}
}

func TestUnmarshalEmptyPayload(t *testing.T) {
	if _, err := Unmarshal(""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

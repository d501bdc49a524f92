package align

import (
	"testing"

	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/transcript"
)

func newTestAligner(mutate func(*config.Config)) *Aligner {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewAligner(&cfg, logging.NewNop())
}

func indexFromSegments(segments []transcript.Segment) *transcript.Index {
	return transcript.New(1, 1, 100, segments)
}

func TestAlignInOrder(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt", "the cat sat on the mat\n\nthe dog barked all night\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 5, Text: "the cat sat on the mat"},
		{Start: 5, End: 10, Text: "the dog barked all night"},
	})

	result := aligner.Align(index, doc)
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].BlockIndex != 0 || result.Matches[1].BlockIndex != 1 {
		t.Errorf("block assignment = %d, %d; want 0, 1", result.Matches[0].BlockIndex, result.Matches[1].BlockIndex)
	}
	if len(result.MissingBlocks) != 0 || len(result.ExtraSpans) != 0 {
		t.Errorf("unexpected missing=%v extra=%v", result.MissingBlocks, result.ExtraSpans)
	}
}

func TestAlignRejectsBackwardJump(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt", "Chapter One intro\n\nChapter One body\n")
	// Spoken out of script order: the second segment's best unconstrained
	// match is block 0, behind the pointer.
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 5, Text: "Chapter One body"},
		{Start: 5, End: 10, Text: "Chapter One intro"},
	})

	result := aligner.Align(index, doc)
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].BlockIndex != 1 {
		t.Fatalf("first segment block = %d, want 1", result.Matches[0].BlockIndex)
	}
	if result.Matches[1].BlockIndex < result.Matches[0].BlockIndex {
		t.Fatalf("backward jump not rejected: %d after %d",
			result.Matches[1].BlockIndex, result.Matches[0].BlockIndex)
	}
}

func TestAlignMonotonicity(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt",
		"alpha bravo charlie delta\n\necho foxtrot golf hotel\n\nindia juliet kilo lima\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 2, Text: "alpha bravo charlie delta"},
		{Start: 2, End: 4, Text: "echo foxtrot golf hotel"},
		{Start: 4, End: 6, Text: "alpha bravo charlie delta"},
		{Start: 6, End: 8, Text: "india juliet kilo lima"},
	})

	result := aligner.Align(index, doc)
	prev := -1
	for _, match := range result.Matches {
		if match.BlockIndex < prev {
			t.Fatalf("non-monotonic assignment: block %d after %d", match.BlockIndex, prev)
		}
		prev = match.BlockIndex
	}
}

func TestAlignMissingBlocks(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt",
		"alpha bravo charlie delta\n\necho foxtrot golf hotel\n\nindia juliet kilo lima\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 2, Text: "alpha bravo charlie delta"},
		{Start: 2, End: 4, Text: "india juliet kilo lima"},
	})

	result := aligner.Align(index, doc)
	if len(result.MissingBlocks) != 1 || result.MissingBlocks[0] != 1 {
		t.Fatalf("missing blocks = %v, want [1]", result.MissingBlocks)
	}
}

func TestAlignExtraSpans(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt", "alpha bravo charlie delta\n\necho foxtrot golf hotel\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 2, Text: "alpha bravo charlie delta"},
		{Start: 2, End: 4, Text: "completely unrelated gibberish words"},
		{Start: 4, End: 6, Text: "echo foxtrot golf hotel"},
	})

	result := aligner.Align(index, doc)
	if len(result.ExtraSpans) != 1 {
		t.Fatalf("expected 1 extra span, got %d", len(result.ExtraSpans))
	}
	span := result.ExtraSpans[0]
	if span.Start != 2 || span.End != 4 || len(span.SegmentIDs) != 1 {
		t.Fatalf("unexpected extra span: %#v", span)
	}
}

func TestAlignCombinesSegmentsSpanningBlock(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt",
		"the silver river wound slowly through the valley floor at dusk\n\n"+
			"the captain lowered the brass telescope with a sigh\n")
	// The first script block was read across two takes.
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 3, Text: "the silver river wound slowly"},
		{Start: 3, End: 6, Text: "through the valley floor at dusk"},
		{Start: 6, End: 10, Text: "the captain lowered the brass telescope with a sigh"},
	})

	result := aligner.Align(index, doc)
	if len(result.Matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %#v", len(result.Matches), result.Matches)
	}
	if result.Matches[0].BlockIndex != 0 || result.Matches[1].BlockIndex != 0 {
		t.Fatalf("split block halves assigned to %d and %d, want both 0",
			result.Matches[0].BlockIndex, result.Matches[1].BlockIndex)
	}
	if result.Matches[0].Score < 0.99 {
		t.Fatalf("combined window score = %.3f, want the full-block match", result.Matches[0].Score)
	}
	if result.Matches[2].BlockIndex != 1 {
		t.Fatalf("closing segment block = %d, want 1", result.Matches[2].BlockIndex)
	}
	if len(result.MissingBlocks) != 0 || len(result.ExtraSpans) != 0 {
		t.Errorf("unexpected missing=%v extra=%v", result.MissingBlocks, result.ExtraSpans)
	}
}

func TestAlignWindowDoesNotSwallowUnscriptedSegment(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt", "alpha bravo charlie delta\n\necho foxtrot golf hotel\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 2, Text: "alpha bravo charlie delta"},
		{Start: 2, End: 4, Text: "completely unrelated gibberish words"},
		{Start: 4, End: 6, Text: "echo foxtrot golf hotel"},
	})

	result := aligner.Align(index, doc)
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if len(result.ExtraSpans) != 1 || len(result.ExtraSpans[0].SegmentIDs) != 1 {
		t.Fatalf("unscripted segment not reported as extra: %#v", result.ExtraSpans)
	}
}

func TestAlignAmbiguousTieResolvesToEarlierBlock(t *testing.T) {
	aligner := newTestAligner(nil)
	doc := ParseDocument("script.txt", "hello world friends\n\nhello world friends\n")
	index := indexFromSegments([]transcript.Segment{
		{Start: 0, End: 2, Text: "hello world friends"},
	})

	result := aligner.Align(index, doc)
	if len(result.Matches) != 1 || result.Matches[0].BlockIndex != 0 {
		t.Fatalf("tie must resolve to earlier block: %#v", result.Matches)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 ambiguity warning, got %d", len(result.Warnings))
	}
	warning := result.Warnings[0]
	if warning.ChosenBlock != 0 || warning.RunnerUp != 1 {
		t.Fatalf("unexpected warning: %#v", warning)
	}
}

func TestAlignEmptyInputs(t *testing.T) {
	aligner := newTestAligner(nil)
	if result := aligner.Align(nil, nil); len(result.Matches) != 0 {
		t.Fatal("nil inputs must yield empty result")
	}
	doc := ParseDocument("script.txt", "alpha bravo charlie\n")
	result := aligner.Align(indexFromSegments(nil), doc)
	if len(result.Matches) != 0 {
		t.Fatal("empty transcript must yield no matches")
	}
}

func TestParseDocument(t *testing.T) {
	doc := ParseDocument("script.txt", "First paragraph line one\nline two\n\n\nSecond paragraph\n")
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(doc.Blocks))
	}
	if doc.Blocks[0].Text != "First paragraph line one line two" {
		t.Errorf("block 0 text = %q", doc.Blocks[0].Text)
	}
	if doc.Blocks[1].OrderIndex != 1 || doc.Blocks[1].Text != "Second paragraph" {
		t.Errorf("block 1 = %#v", doc.Blocks[1])
	}
}

func TestResultMarshalRoundTrip(t *testing.T) {
	result := &Result{
		AssetID:       3,
		ReferencePath: "script.txt",
		Matches:       []Match{{SegmentID: 1, BlockIndex: 0, Score: 0.9}},
		MissingBlocks: []int{2},
	}
	raw, err := result.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.AssetID != 3 || len(back.Matches) != 1 || back.MissingBlocks[0] != 2 {
		t.Fatalf("round trip mismatch: %#v", back)
	}
}

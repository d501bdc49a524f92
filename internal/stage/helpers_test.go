package stage

import (
	"errors"
	"testing"

	"retake/internal/services"
)

func TestParseTranscript_Valid(t *testing.T) {
	raw := `{"asset_id":1,"generation":1,"duration":20,"segments":[{"id":1,"asset_id":1,"order_index":0,"start":0,"end":2,"text":"hello"}]}`
	index, err := ParseTranscript(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.AssetID != 1 || len(index.Segments) != 1 {
		t.Fatalf("unexpected index: %#v", index)
	}
}

func TestParseTranscript_Empty(t *testing.T) {
	_, err := ParseTranscript("")
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
	if !errors.Is(err, services.ErrTranscriptUnavailable) {
		t.Fatalf("expected transcript unavailable marker, got %v", err)
	}
}

func TestParseTranscript_Invalid(t *testing.T) {
	if _, err := ParseTranscript("{invalid json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

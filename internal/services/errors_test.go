package services_test

import (
	"errors"
	"strings"
	"testing"

	"retake/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "reconstruct", "slice", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"reconstruct", "slice", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "detect", "compare", "odd state", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrBoundary, "reconstruct", "validate", "Region exceeds asset duration", nil)
	details := services.Details(err)
	if strings.Contains(details.Message, "reconstruction boundary error") {
		t.Fatalf("expected marker stripped, got %q", details.Message)
	}
	if !strings.Contains(details.Message, "Region exceeds asset duration") {
		t.Fatalf("expected message retained, got %q", details.Message)
	}
	if msg := services.Details(nil).Message; msg != "" {
		t.Fatalf("expected empty message for nil error, got %q", msg)
	}
}

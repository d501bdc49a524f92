package audio

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSliceRejectsEmptyRange(t *testing.T) {
	f := NewFFmpeg("", "")
	dest := filepath.Join(t.TempDir(), "out.wav")
	if err := f.Slice(context.Background(), "in.wav", 5, 5, dest); err == nil {
		t.Fatal("expected error for empty slice range")
	}
	if err := f.Slice(context.Background(), "in.wav", 5, 3, dest); err == nil {
		t.Fatal("expected error for inverted slice range")
	}
}

func TestConcatRequiresParts(t *testing.T) {
	f := NewFFmpeg("", "")
	dest := filepath.Join(t.TempDir(), "out.wav")
	if err := f.Concat(context.Background(), nil, dest); err == nil {
		t.Fatal("expected error for empty part list")
	}
}

func TestCancelledContextShortCircuits(t *testing.T) {
	f := NewFFmpeg("", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "out.wav")
	if err := f.Slice(ctx, "in.wav", 0, 1, dest); err == nil {
		t.Fatal("expected context error from slice")
	}
	if err := f.Concat(ctx, []string{"a.wav"}, dest); err == nil {
		t.Fatal("expected context error from concat")
	}
	if err := f.ExtractWAV(ctx, "in.wav", dest); err == nil {
		t.Fatal("expected context error from extract")
	}
}

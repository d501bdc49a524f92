package deps

import (
	"os"
	"path/filepath"
	"testing"

	"retake/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestRequiredCoversPipelineTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	reqs := Required(cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	byName := map[string]Requirement{}
	for _, req := range reqs {
		byName[req.Name] = req
	}
	if byName["FFmpeg"].Command != cfg.FFmpegBinary() {
		t.Fatalf("FFmpeg command = %q", byName["FFmpeg"].Command)
	}
	if byName["FFmpeg"].Optional || byName["FFprobe"].Optional {
		t.Fatal("audio tools must not be optional")
	}
	if !byName["Transcriber"].Optional {
		t.Fatal("transcriber should be optional for review-only workflows")
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: false},
		{Name: "FFprobe", Available: true},
		{Name: "Transcriber", Available: false, Optional: true},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0] != "FFmpeg" {
		t.Fatalf("missing = %v, want [FFmpeg]", missing)
	}
}

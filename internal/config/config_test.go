package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retake/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Detection.KeepPolicy != config.KeepLast {
		t.Fatalf("expected keep_last default, got %q", cfg.Detection.KeepPolicy)
	}
	if cfg.Detection.SimilarityThreshold != 0.85 {
		t.Fatalf("unexpected similarity threshold %v", cfg.Detection.SimilarityThreshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Detection.MinWords != 3 {
		t.Fatalf("expected default min_words, got %d", cfg.Detection.MinWords)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`staging_dir = "` + filepath.Join(dir, "staging") + `"`,
		`library_dir = "` + filepath.Join(dir, "library") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"",
		"[detection]",
		"similarity_threshold = 0.9",
		`keep_policy = "keep_first"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Detection.SimilarityThreshold != 0.9 {
		t.Fatalf("expected threshold override, got %v", cfg.Detection.SimilarityThreshold)
	}
	if cfg.Detection.KeepPolicy != config.KeepFirst {
		t.Fatalf("expected keep_first, got %q", cfg.Detection.KeepPolicy)
	}
	if cfg.Detection.Metric != "levenshtein" {
		t.Fatalf("expected metric default to survive overrides, got %q", cfg.Detection.Metric)
	}
}

func TestValidateRejectsBadKeepPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.KeepPolicy = "keep_best"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected keep policy validation error")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.SimilarityThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected threshold validation error")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.LibraryDir} {
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", p, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[detection]") {
		t.Fatal("expected sample to document the detection section")
	}
}

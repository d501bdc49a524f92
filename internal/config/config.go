package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
}

// Detection contains configuration for duplicate take detection.
type Detection struct {
	// SimilarityThreshold is the normalized similarity at or above which two
	// segments are considered the same take. Default: 0.85
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// MinWords excludes segments shorter than this word count from comparison
	// to avoid false positives on short filler lines. Default: 3
	MinWords int `toml:"min_words"`
	// KeepPolicy selects which member of a duplicate group survives:
	// "keep_first" or "keep_last". Default: keep_last (the final take).
	KeepPolicy string `toml:"keep_policy"`
	// Metric selects the similarity metric: "levenshtein" or "token_overlap".
	Metric string `toml:"metric"`
	// MergeGapSeconds merges proposed deletion regions separated by less than
	// this gap so reconstruction avoids many tiny splices. Default: 0.25
	MergeGapSeconds float64 `toml:"merge_gap_seconds"`
}

// Alignment contains configuration for reference script alignment.
type Alignment struct {
	// MinScore is the minimum similarity for a segment/block match. Default: 0.5
	MinScore float64 `toml:"min_score"`
	// SearchWindow bounds how many blocks past the previous match are scored.
	// Default: 8
	SearchWindow int `toml:"search_window"`
	// AmbiguityEpsilon is the score distance within which two blocks are
	// treated as a near-tie and flagged. Default: 0.02
	AmbiguityEpsilon float64 `toml:"ambiguity_epsilon"`
	// WindowSegments is the number of consecutive segments combined when a
	// script block spans multiple takes. Default: 3
	WindowSegments int `toml:"window_segments"`
}

// Transcriber contains configuration for the speech-to-text producer.
type Transcriber struct {
	// Binary is the transcription executable. Default: whisperx
	Binary string `toml:"binary"`
	// Model is the model name passed to the transcriber.
	Model string `toml:"model"`
	// Language hints the spoken language; empty lets the tool detect it.
	Language string `toml:"language"`
	// TimeoutSeconds bounds a single transcription run. Default: 3600
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for retake.
//
// Configuration sections by subsystem:
//   - Paths: staging scratch space, cleaned-audio library, logs
//   - Detection: duplicate take grouping thresholds and keep policy
//   - Alignment: reference script matching thresholds
//   - Transcriber: speech-to-text tool settings
//   - Workflow: daemon polling intervals and heartbeats
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Detection   Detection   `toml:"detection"`
	Alignment   Alignment   `toml:"alignment"`
	Transcriber Transcriber `toml:"transcriber"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/retake/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("retake.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// PreviewDir returns the staging subdirectory holding discardable preview artifacts.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.Paths.StagingDir, "previews")
}

// LockDir returns the directory holding per-asset advisory lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.LogDir, "locks")
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable name used for audio slicing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"retake/internal/config"
	"retake/internal/transcript"
)

// WhisperX runtime constants.
const (
	outputFormat      = "json"
	segmentResolution = "sentence"
	batchSize         = "4"
	cpuDevice         = "cpu"
	cpuComputeType    = "float32"
)

// WhisperX runs the whisperx CLI and parses its JSON output into transcript
// segments.
type WhisperX struct {
	binary        string
	model         string
	language      string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisperX creates a producer from the transcriber configuration.
func NewWhisperX(cfg *config.Config) *WhisperX {
	return &WhisperX{
		binary:   cfg.Transcriber.Binary,
		model:    cfg.Transcriber.Model,
		language: cfg.Transcriber.Language,
		timeout:  time.Duration(cfg.Transcriber.TimeoutSeconds) * time.Second,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.commandRunner = runner
}

// Model returns the configured model name for logging.
func (w *WhisperX) Model() string {
	return w.model
}

// Transcribe runs whisperx against the source WAV and parses the JSON file
// it writes next to the source name in outputDir.
func (w *WhisperX) Transcribe(ctx context.Context, source, outputDir string) ([]transcript.Segment, error) {
	if source == "" {
		return nil, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.run(ctx, w.binary, w.buildArgs(source, outputDir)...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("whisperx output: %w", err)
	}
	return ParseOutput(data)
}

func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (w *WhisperX) buildArgs(source, outputDir string) []string {
	args := []string{
		source,
		"--model", w.model,
		"--batch_size", batchSize,
		"--output_dir", outputDir,
		"--output_format", outputFormat,
		"--segment_resolution", segmentResolution,
		"--device", cpuDevice,
		"--compute_type", cpuComputeType,
	}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}
	return args
}

type outputWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

type outputSegment struct {
	Text  string       `json:"text"`
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Words []outputWord `json:"words"`
}

type outputPayload struct {
	Segments []outputSegment `json:"segments"`
}

// ParseOutput converts a whisperx JSON payload into transcript segments.
// Segments with no text are dropped.
func ParseOutput(data []byte) ([]transcript.Segment, error) {
	var payload outputPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		words := make([]transcript.Word, 0, len(seg.Words))
		for _, word := range seg.Words {
			words = append(words, transcript.Word{
				Word:       strings.TrimSpace(word.Word),
				Start:      word.Start,
				End:        word.End,
				Confidence: word.Score,
			})
		}
		segments = append(segments, transcript.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
			Words: words,
		})
	}
	return segments, nil
}

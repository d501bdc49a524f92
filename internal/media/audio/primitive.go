package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"retake/internal/media/ffprobe"
)

// Primitive is the audio capability the reconstructor and transcriber need:
// slicing and concatenating by timestamp, measuring duration, and exporting
// derived streams.
type Primitive interface {
	Duration(ctx context.Context, path string) (float64, error)
	Slice(ctx context.Context, src string, start, end float64, dest string) error
	Concat(ctx context.Context, parts []string, dest string) error
	ExtractWAV(ctx context.Context, src, dest string) error
}

// FFmpeg implements Primitive by shelling out to ffmpeg and ffprobe.
type FFmpeg struct {
	ffmpegBin  string
	ffprobeBin string
}

// NewFFmpeg constructs the ffmpeg-backed primitive. Empty binary names fall
// back to PATH lookup.
func NewFFmpeg(ffmpegBin, ffprobeBin string) *FFmpeg {
	if strings.TrimSpace(ffmpegBin) == "" {
		ffmpegBin = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBin) == "" {
		ffprobeBin = "ffprobe"
	}
	return &FFmpeg{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin}
}

// Duration returns the asset duration in seconds via ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, f.ffprobeBin, path)
	if err != nil {
		return 0, err
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	return seconds, nil
}

// Slice copies the [start, end) span of the source into dest without
// re-encoding.
func (f *FFmpeg) Slice(ctx context.Context, src string, start, end float64, dest string) error {
	if end <= start {
		return fmt.Errorf("slice range [%.3f, %.3f] is empty", start, end)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create slice dir: %w", err)
	}

	err := ffmpeg.Input(src, ffmpeg.KwArgs{"ss": start}).
		Output(dest, ffmpeg.KwArgs{
			"t": end - start,
			"c": "copy",
		}).
		OverWriteOutput().
		SetFfmpegPath(f.ffmpegBin).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg slice [%.3f, %.3f): %w", start, end, err)
	}
	return nil
}

// Concat joins the parts in order into dest using the concat demuxer, again
// without re-encoding. The parts must share codec parameters, which holds for
// slices produced from one source.
func (f *FFmpeg) Concat(ctx context.Context, parts []string, dest string) error {
	if len(parts) == 0 {
		return fmt.Errorf("concat requires at least one part")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create concat dir: %w", err)
	}

	listPath := dest + ".concat.txt"
	var list strings.Builder
	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			return fmt.Errorf("resolve concat part: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	err := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(dest, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		SetFfmpegPath(f.ffmpegBin).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg concat %d parts: %w", len(parts), err)
	}
	return nil
}

// ExtractWAV writes a mono 16 kHz PCM rendition of the source, the input
// format speech-to-text tools expect.
func (f *FFmpeg) ExtractWAV(ctx context.Context, src, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}

	err := ffmpeg.Input(src).
		Output(dest, ffmpeg.KwArgs{
			"vn":     "",
			"ar":     16000,
			"ac":     1,
			"acodec": "pcm_s16le",
		}).
		OverWriteOutput().
		SetFfmpegPath(f.ffmpegBin).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg extract wav: %w", err)
	}
	return nil
}

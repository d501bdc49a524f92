package stt

import (
	"context"

	"retake/internal/transcript"
)

// Producer converts an audio file into timed transcript segments. The
// segments carry start, end, text, and word timings; ordering and identifier
// assignment happen when the transcript index is built.
type Producer interface {
	Transcribe(ctx context.Context, source, outputDir string) ([]transcript.Segment, error)
}

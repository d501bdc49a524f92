package stage

import (
	"retake/internal/services"
	"retake/internal/transcript"
)

// ParseTranscript parses a persisted transcript payload and returns the index.
// On failure it returns a services.ErrTranscriptUnavailable suitable for stage
// Execute methods.
func ParseTranscript(raw string) (*transcript.Index, error) {
	if raw == "" {
		return nil, services.Wrap(
			services.ErrTranscriptUnavailable, "stage", "parse transcript",
			"Transcript missing; rerun transcription", nil)
	}
	index, err := transcript.Unmarshal(raw)
	if err != nil {
		return nil, services.Wrap(
			services.ErrTranscriptUnavailable, "stage", "parse transcript",
			"Transcript payload invalid; rerun transcription", err)
	}
	return index, nil
}

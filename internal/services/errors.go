package services

import (
	"errors"
	"fmt"
	"strings"

	"retake/internal/queue"
)

var (
	// ErrTranscriptUnavailable marks operations that found no segments for the
	// requested asset. Recoverable by re-running transcription upstream.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrBoundary marks deletion plan regions that fall outside the asset or
	// overlap in an unmergeable way. The whole reconstruction is rejected.
	ErrBoundary = errors.New("reconstruction boundary error")
	// ErrConflict marks per-asset lock contention. The caller retries later.
	ErrConflict = errors.New("concurrent job conflict")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails. Every marker lands on StatusFailed;
// the distinction the callers care about is carried by errors.Is checks.
func FailureStatus(err error) queue.Status {
	_ = err
	return queue.StatusFailed
}

// ErrorDetails carries the human-readable portion of a wrapped stage error.
type ErrorDetails struct {
	Message string
}

// Details extracts the message text that follows the sentinel marker. Used by
// stage execution to persist a readable failure reason on the asset.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrTranscriptUnavailable,
		ErrBoundary,
		ErrConflict,
		ErrExternalTool,
		ErrValidation,
		ErrConfiguration,
		ErrNotFound,
		ErrTimeout,
		ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return ErrorDetails{Message: strings.TrimPrefix(msg, prefix)}
		}
	}
	return ErrorDetails{Message: msg}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

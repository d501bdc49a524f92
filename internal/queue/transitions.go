package queue

import "fmt"

// ErrInvalidTransition wraps a rejected status change.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// allowedTransitions is the single source of truth for the asset lifecycle.
// Every status change goes through ValidateTransition; call sites never
// encode their own rules.
var allowedTransitions = map[Status][]Status{
	StatusCreated:         {StatusTranscribing},
	StatusTranscribing:    {StatusTranscribed},
	StatusTranscribed:     {StatusDetecting},
	StatusDetecting:       {StatusDuplicatesFound},
	StatusDuplicatesFound: {StatusReviewing},
	StatusReviewing:       {StatusConfirmed},
	// Restore re-opens review after confirmation.
	StatusConfirmed:      {StatusReviewing, StatusReconstructing},
	StatusReconstructing: {StatusCompleted},
	StatusCompleted:      {},
	StatusFailed:         {StatusCreated},
}

// stageStartStatuses maps each processing status back to the status a stage
// starts from, used when reclaiming wedged assets.
var stageStartStatuses = map[Status]Status{
	StatusTranscribing:   StatusCreated,
	StatusDetecting:      StatusTranscribed,
	StatusReconstructing: StatusConfirmed,
}

// ValidateTransition reports whether moving an asset from one status to
// another is legal. Any processing status may move to failed; identical
// statuses are a no-op and always allowed.
func ValidateTransition(from, to Status) error {
	if _, ok := statusSet[from]; !ok {
		return fmt.Errorf("unknown status %q", from)
	}
	if _, ok := statusSet[to]; !ok {
		return fmt.Errorf("unknown status %q", to)
	}
	if from == to {
		return nil
	}
	if to == StatusFailed {
		if IsProcessingStatus(from) {
			return nil
		}
		return &ErrInvalidTransition{From: from, To: to}
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return nil
		}
	}
	return &ErrInvalidTransition{From: from, To: to}
}

// StageStartStatus returns the status a wedged processing asset is returned
// to when its stage is reset or reclaimed.
func StageStartStatus(processing Status) (Status, bool) {
	start, ok := stageStartStatuses[processing]
	return start, ok
}

package stage

import (
	"context"

	"retake/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Asset) error
	Execute(context.Context, *queue.Asset) error
	HealthCheck(context.Context) Health
}

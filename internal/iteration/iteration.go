package iteration

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/services"
)

// Spawner creates follow-up passes over reconstructed audio. Each iteration
// is a fresh asset whose source is the parent's committed artifact, so the
// whole pipeline reruns against progressively cleaner audio.
type Spawner struct {
	store  *queue.Store
	logger *slog.Logger
}

// NewSpawner constructs a spawner over the given store.
func NewSpawner(store *queue.Store, logger *slog.Logger) *Spawner {
	spawnerLogger := logger
	if spawnerLogger != nil {
		spawnerLogger = spawnerLogger.With(logging.String(logging.FieldComponent, "iteration"))
	}
	return &Spawner{store: store, logger: spawnerLogger}
}

// Spawn creates the next iteration of a completed asset. The parent must
// have published a final artifact; the child starts at the beginning of the
// pipeline with the artifact as its source.
func (s *Spawner) Spawn(ctx context.Context, parent *queue.Asset) (*queue.Asset, error) {
	logger := logging.WithContext(ctx, s.logger)

	if parent.Status != queue.StatusCompleted {
		return nil, services.Wrap(services.ErrConflict, "iterating", "check parent",
			fmt.Sprintf("Parent asset is %s; only completed assets can be iterated", parent.Status), nil)
	}
	if strings.TrimSpace(parent.FinalFile) == "" {
		return nil, services.Wrap(services.ErrValidation, "iterating", "check parent",
			"Parent asset has no published artifact to iterate on", nil)
	}

	child, err := s.store.NewIteration(ctx, parent, parent.FinalFile)
	if err != nil {
		return nil, fmt.Errorf("spawn iteration: %w", err)
	}

	logger.Info(
		"iteration spawned",
		logging.Int64(logging.FieldAssetID, child.ID),
		logging.Int64("parent_id", parent.ID),
		logging.Int("iteration", child.IterationNumber),
	)
	return child, nil
}

// Lineage walks parent links from the given asset back to the root, returning
// the chain ordered root first.
func (s *Spawner) Lineage(ctx context.Context, asset *queue.Asset) ([]*queue.Asset, error) {
	var chain []*queue.Asset
	current := asset
	for current != nil {
		chain = append([]*queue.Asset{current}, chain...)
		if current.ParentID == nil {
			break
		}
		parent, err := s.store.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load parent %d: %w", *current.ParentID, err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent %d not found", *current.ParentID)
		}
		current = parent
	}
	return chain, nil
}

package api

import (
	"context"
	"fmt"

	"retake/internal/align"
	"retake/internal/dedupe"
	"retake/internal/logging"
	"retake/internal/plan"
	"retake/internal/preview"
	"retake/internal/queue"
	"retake/internal/services"
	"retake/internal/stage"
	"retake/internal/stageexec"
)

// Transcribe runs the transcription stage on a freshly added asset and
// leaves it in the transcribed state.
func (s *Service) Transcribe(ctx context.Context, id int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusCreated); err != nil {
			return err
		}
		return stageexec.Run(ctx, stageexec.Options{
			Logger:     s.logger,
			Store:      s.store,
			Handler:    s.transcriber,
			StageName:  "transcribing",
			Processing: queue.StatusTranscribing,
			Done:       queue.StatusTranscribed,
			Asset:      asset,
		})
	})
}

// DetectDuplicates runs duplicate detection on a transcribed asset. The
// detector persists both the duplicate groups and a proposed deletion plan.
func (s *Service) DetectDuplicates(ctx context.Context, id int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusTranscribed); err != nil {
			return err
		}
		return stageexec.Run(ctx, stageexec.Options{
			Logger:     s.logger,
			Store:      s.store,
			Handler:    s.detector,
			StageName:  "detecting",
			Processing: queue.StatusDetecting,
			Done:       queue.StatusDuplicatesFound,
			Asset:      asset,
		})
	})
}

// DuplicateGroups returns the persisted detection result for an asset.
func (s *Service) DuplicateGroups(ctx context.Context, id int64) (*dedupe.Result, error) {
	asset, err := s.Asset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.DuplicateGroupsJSON == "" {
		return nil, services.Wrap(services.ErrNotFound, "api", "load duplicate groups",
			fmt.Sprintf("Asset %d has no detection result; run detection first", id), nil)
	}
	result, err := dedupe.Unmarshal(asset.DuplicateGroupsJSON)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "parse duplicate groups",
			"Stored detection result is unreadable", err)
	}
	return result, nil
}

// AlignToReference aligns the asset's transcript against its reference
// script and persists the alignment result. It requires a transcript and a
// configured reference path but does not change the asset's status.
func (s *Service) AlignToReference(ctx context.Context, id int64) (*align.Result, error) {
	var result *align.Result
	err := s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if asset.ReferencePath == "" {
			return services.Wrap(services.ErrValidation, "aligning", "check reference",
				fmt.Sprintf("Asset %d has no reference script", id), nil)
		}
		index, err := stage.ParseTranscript(asset.TranscriptJSON)
		if err != nil {
			return err
		}

		doc, err := align.PlainTextExtractor{}.Extract(asset.ReferencePath)
		if err != nil {
			return services.Wrap(services.ErrValidation, "aligning", "read reference",
				fmt.Sprintf("Failed to read reference script %s", asset.ReferencePath), err)
		}

		aligner := align.NewAligner(s.cfg, s.logger)
		result = aligner.Align(index, doc)
		raw, err := result.Marshal()
		if err != nil {
			return services.Wrap(services.ErrValidation, "aligning", "marshal result",
				"Failed to serialize alignment result", err)
		}
		asset.AlignmentJSON = raw
		if err := s.store.Update(ctx, asset); err != nil {
			return fmt.Errorf("persist alignment: %w", err)
		}

		logging.WithContext(ctx, s.logger).Info(
			"alignment complete",
			logging.Int64(logging.FieldAssetID, asset.ID),
			logging.Int("matches", len(result.Matches)),
			logging.Int("missing_blocks", len(result.MissingBlocks)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Alignment returns the persisted alignment result for an asset.
func (s *Service) Alignment(ctx context.Context, id int64) (*align.Result, error) {
	asset, err := s.Asset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.AlignmentJSON == "" {
		return nil, services.Wrap(services.ErrNotFound, "api", "load alignment",
			fmt.Sprintf("Asset %d has no alignment; run align first", id), nil)
	}
	result, err := align.Unmarshal(asset.AlignmentJSON)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "parse alignment",
			"Stored alignment result is unreadable", err)
	}
	return result, nil
}

// DeletionPlan returns the asset's current deletion plan.
func (s *Service) DeletionPlan(ctx context.Context, id int64) (*plan.Plan, error) {
	asset, err := s.Asset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.DeletionPlanJSON == "" {
		return nil, services.Wrap(services.ErrNotFound, "api", "load plan",
			fmt.Sprintf("Asset %d has no deletion plan", id), nil)
	}
	p, err := plan.Unmarshal(asset.DeletionPlanJSON)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "parse plan",
			"Stored deletion plan is unreadable", err)
	}
	return p, nil
}

// ProposeDeletionPlan moves an asset with detection results into the reviewing
// state, regenerating the proposed deletion plan from the persisted groups
// so policy changes between detection and review take effect.
func (s *Service) ProposeDeletionPlan(ctx context.Context, id int64) (*plan.Plan, error) {
	var proposed *plan.Plan
	err := s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusDuplicatesFound); err != nil {
			return err
		}
		index, err := stage.ParseTranscript(asset.TranscriptJSON)
		if err != nil {
			return err
		}
		result, err := dedupe.Unmarshal(asset.DuplicateGroupsJSON)
		if err != nil {
			return services.Wrap(services.ErrValidation, "reviewing", "parse duplicate groups",
				"Stored detection result is unreadable", err)
		}

		proposed = dedupe.NewDetector(s.cfg, s.logger).ProposePlan(index, result)
		raw, err := proposed.Marshal()
		if err != nil {
			return services.Wrap(services.ErrValidation, "reviewing", "marshal plan",
				"Failed to serialize proposed deletion plan", err)
		}
		asset.DeletionPlanJSON = raw
		if err := s.store.Update(ctx, asset); err != nil {
			return fmt.Errorf("persist proposed plan: %w", err)
		}
		return s.store.Transition(ctx, asset, queue.StatusReviewing)
	})
	if err != nil {
		return nil, err
	}
	return proposed, nil
}

// ConfirmDeletions freezes the deletion plan for reconstruction. Passing
// segment IDs narrows the confirmed plan to the regions sourced from them;
// none confirms the whole plan.
func (s *Service) ConfirmDeletions(ctx context.Context, id int64, segmentIDs []int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusReviewing); err != nil {
			return err
		}
		p, err := plan.Unmarshal(asset.DeletionPlanJSON)
		if err != nil {
			return services.Wrap(services.ErrValidation, "reviewing", "parse plan",
				"Stored deletion plan is unreadable", err)
		}
		scoped, err := p.ScopedTo(segmentIDs)
		if err != nil {
			return services.Wrap(services.ErrValidation, "reviewing", "scope plan",
				"Requested segments are not in the deletion plan", err)
		}
		if scoped.Empty() {
			return services.Wrap(services.ErrValidation, "reviewing", "check plan",
				fmt.Sprintf("Asset %d has an empty deletion plan; nothing to confirm", id), nil)
		}
		if len(segmentIDs) > 0 {
			raw, err := scoped.Marshal()
			if err != nil {
				return services.Wrap(services.ErrValidation, "reviewing", "marshal plan",
					"Failed to serialize scoped deletion plan", err)
			}
			asset.DeletionPlanJSON = raw
		}
		return s.store.Transition(ctx, asset, queue.StatusConfirmed)
	})
}

// RestoreSegments removes the given segments from the deletion plan. A
// confirmed asset drops back to reviewing since its frozen plan changed.
// With regeneratePreview set, a fresh preview of the surviving plan is
// rendered once the restore lands; otherwise the stale preview is just
// discarded. Returns the number of regions removed from the plan.
func (s *Service) RestoreSegments(ctx context.Context, id int64, segmentIDs []int64, regeneratePreview bool) (int, error) {
	removed := 0
	err := s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		wasConfirmed := asset.Status == queue.StatusConfirmed
		if wasConfirmed {
			if err := s.store.Transition(ctx, asset, queue.StatusReviewing); err != nil {
				return err
			}
		}
		var err error
		removed, err = s.previews.Restore(ctx, asset, segmentIDs)
		if err != nil {
			return err
		}
		if !regeneratePreview {
			return nil
		}
		remaining, err := plan.Unmarshal(asset.DeletionPlanJSON)
		if err != nil {
			return services.Wrap(services.ErrValidation, "previewing", "parse plan",
				"Stored deletion plan is unreadable", err)
		}
		if remaining.Empty() {
			return nil
		}
		_, err = s.previews.Generate(ctx, asset)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PreviewDeletions renders the deletion plan into a listenable preview
// artifact without touching the source audio. Passing segment IDs previews
// only the regions sourced from them; none previews the whole plan.
func (s *Service) PreviewDeletions(ctx context.Context, id int64, segmentIDs []int64) (*preview.Metadata, error) {
	var meta *preview.Metadata
	err := s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		var genErr error
		meta, genErr = s.previews.Generate(ctx, asset, segmentIDs...)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// DiscardPreview drops the asset's preview artifact if one exists.
func (s *Service) DiscardPreview(ctx context.Context, id int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		return s.previews.Discard(ctx, asset)
	})
}

// PreviewStatus reports the preview lifecycle state and, when ready, its
// metadata.
func (s *Service) PreviewStatus(ctx context.Context, id int64) (queue.PreviewStatus, *preview.Metadata, error) {
	asset, err := s.Asset(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if asset.PreviewStatus != queue.PreviewReady || asset.PreviewJSON == "" {
		return asset.PreviewStatus, nil, nil
	}
	meta, err := preview.Unmarshal(asset.PreviewJSON)
	if err != nil {
		return asset.PreviewStatus, nil, services.Wrap(services.ErrValidation, "api", "parse preview",
			"Stored preview metadata is unreadable", err)
	}
	return asset.PreviewStatus, meta, nil
}

// CommitReconstruction applies the confirmed deletion plan to the source
// audio and publishes the cleaned artifact.
func (s *Service) CommitReconstruction(ctx context.Context, id int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusConfirmed); err != nil {
			return err
		}
		return stageexec.Run(ctx, stageexec.Options{
			Logger:     s.logger,
			Store:      s.store,
			Handler:    s.reconstructor,
			StageName:  "reconstructing",
			Processing: queue.StatusReconstructing,
			Done:       queue.StatusCompleted,
			Asset:      asset,
		})
	})
}

// SpawnIteration creates a child asset whose source is the parent's cleaned
// artifact, ready for another detection pass.
func (s *Service) SpawnIteration(ctx context.Context, id int64) (*queue.Asset, error) {
	var child *queue.Asset
	err := s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		var spawnErr error
		child, spawnErr = s.spawner.Spawn(ctx, asset)
		return spawnErr
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// Lineage returns the iteration chain containing the asset, root first.
func (s *Service) Lineage(ctx context.Context, id int64) ([]*queue.Asset, error) {
	asset, err := s.Asset(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.spawner.Lineage(ctx, asset)
}

// RetryFailed resets a failed asset to created so the pipeline can run
// again from the top.
func (s *Service) RetryFailed(ctx context.Context, id int64) error {
	return s.withLockedAsset(ctx, id, func(asset *queue.Asset) error {
		if err := requireStatus(asset, queue.StatusFailed); err != nil {
			return err
		}
		asset.ErrorMessage = ""
		asset.InitProgress("", "")
		return s.store.Transition(ctx, asset, queue.StatusCreated)
	})
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"retake/internal/api"
	"retake/internal/queue"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "align <id>",
		Short: "Align an asset's transcript against its reference script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				result, err := svc.AlignToReference(runCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Asset #%d aligned against %s\n", id, result.ReferencePath)
				fmt.Fprintf(out, "Matched segments: %d\n", len(result.Matches))
				if len(result.MissingBlocks) > 0 {
					fmt.Fprintf(out, "Missing script blocks: %v\n", result.MissingBlocks)
				}
				for _, span := range result.ExtraSpans {
					fmt.Fprintf(out, "Extra speech %s (segments %v)\n",
						formatTimeRange(span.Start, span.End), span.SegmentIDs)
				}
				for _, warning := range result.Warnings {
					fmt.Fprintf(out, "Ambiguous: segment %d matched block %d over block %d (spread %.3f)\n",
						warning.SegmentID, warning.ChosenBlock, warning.RunnerUp, warning.ScoreSpread)
				}
				return nil
			})
		},
	}
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <id>",
		Short: "Open the proposed deletion plan for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				proposed, err := svc.ProposeDeletionPlan(runCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if proposed.Empty() {
					fmt.Fprintf(out, "Asset #%d has nothing to delete\n", id)
					return nil
				}
				fmt.Fprintf(out, "Asset #%d under review: %d region(s), %.1fs to delete\n",
					id, len(proposed.Regions), proposed.DeletedDuration())
				fmt.Fprintln(out, renderPlanRegions(proposed))
				return nil
			})
		},
	}
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <id>",
		Short: "Show an asset's current deletion plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				current, err := svc.DeletionPlan(runCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if current.Empty() {
					fmt.Fprintf(out, "Asset #%d has an empty deletion plan\n", id)
					return nil
				}
				fmt.Fprintln(out, renderPlanRegions(current))
				fmt.Fprintf(out, "Total: %.1fs across %d region(s)\n",
					current.DeletedDuration(), len(current.Regions))
				return nil
			})
		},
	}
}

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates <id>",
		Short: "Show the duplicate groups detected for an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				result, err := svc.DuplicateGroups(runCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(result.Groups) == 0 {
					fmt.Fprintf(out, "Asset #%d: no duplicated takes found\n", id)
					return nil
				}
				fmt.Fprintln(out, renderDuplicateGroups(result))
				return nil
			})
		},
	}
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "restore <id> <segment-id>...",
		Short: "Remove segments from the deletion plan so they stay in the audio",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			segmentIDs, err := parseSegmentIDs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				removed, err := svc.RestoreSegments(runCtx, id, segmentIDs, regenerate)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d region(s) from the deletion plan\n", removed)
				if regenerate {
					if status, meta, _ := svc.PreviewStatus(runCtx, id); status == queue.PreviewReady && meta != nil {
						fmt.Fprintf(out, "Preview regenerated: %s\n", meta.ArtifactRef)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&regenerate, "preview", false, "Regenerate the preview from the updated plan")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var discard bool

	cmd := &cobra.Command{
		Use:   "preview <id> [segment-id]...",
		Short: "Render the deletion plan into a listenable preview",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			segmentIDs, err := parseSegmentIDs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				out := cmd.OutOrStdout()
				if discard {
					if err := svc.DiscardPreview(runCtx, id); err != nil {
						return err
					}
					fmt.Fprintf(out, "Preview for asset #%d discarded\n", id)
					return nil
				}
				meta, err := svc.PreviewDeletions(runCtx, id, segmentIDs)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Preview ready: %s\n", meta.ArtifactRef)
				fmt.Fprintf(out, "Original %.1fs, preview %.1fs (%.1fs deleted across %d segment(s))\n",
					meta.OriginalDuration, meta.PreviewDuration, meta.DeletedDuration, meta.SegmentsDeleted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&discard, "discard", false, "Discard the existing preview artifact")
	return cmd
}

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id> [segment-id]...",
		Short: "Freeze the deletion plan for reconstruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			segmentIDs, err := parseSegmentIDs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				if err := svc.ConfirmDeletions(runCtx, id, segmentIDs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Asset #%d confirmed; run `retake commit %d` to apply\n", id, id)
				return nil
			})
		},
	}
}

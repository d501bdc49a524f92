package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"retake/internal/api"
	"retake/internal/queue"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <id>",
		Short: "Transcribe an asset's audio with word-level timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				if err := svc.Transcribe(runCtx, id); err != nil {
					return err
				}
				asset, err := svc.Asset(runCtx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Asset #%d transcribed (%s)\n", id, asset.ProgressMessage)
				return nil
			})
		},
	}
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <id>",
		Short: "Detect duplicated takes in a transcribed asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				if err := svc.DetectDuplicates(runCtx, id); err != nil {
					return err
				}
				result, err := svc.DuplicateGroups(runCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(result.Groups) == 0 {
					fmt.Fprintf(out, "Asset #%d: no duplicated takes found\n", id)
					return nil
				}
				fmt.Fprintf(out, "Asset #%d: %d duplicate group(s) across %d compared segment(s)\n",
					id, len(result.Groups), result.Compared)
				fmt.Fprintln(out, renderDuplicateGroups(result))
				return nil
			})
		},
	}
}

func newCommitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <id>",
		Short: "Apply the confirmed deletion plan and publish the cleaned audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				if err := svc.CommitReconstruction(runCtx, id); err != nil {
					return err
				}
				asset, err := svc.Asset(runCtx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Asset #%d reconstructed\nCleaned audio: %s\n", id, asset.FinalFile)
				return nil
			})
		},
	}
}

func newIterateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "iterate <id>",
		Short: "Queue a new detection pass over an asset's cleaned audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				child, err := svc.SpawnIteration(runCtx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued iteration %d as asset #%d (source: %s)\n",
					child.IterationNumber, child.ID, child.SourcePath)
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"retake/internal/api"
	"retake/internal/plan"
	"retake/internal/queue"
	"retake/internal/transcript"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full state of one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, _ *queue.Store) error {
				asset, err := svc.Asset(runCtx, id)
				if err != nil {
					return err
				}

				rows := [][]string{
					{"ID", strconv.FormatInt(asset.ID, 10)},
					{"Title", asset.Title},
					{"Status", string(asset.Status)},
					{"Source", asset.SourcePath},
				}
				if asset.ReferencePath != "" {
					rows = append(rows, []string{"Reference", asset.ReferencePath})
				}
				rows = append(rows, []string{"Iteration", strconv.Itoa(asset.IterationNumber)})
				if asset.ParentID != nil {
					rows = append(rows, []string{"Parent", fmt.Sprintf("#%d", *asset.ParentID)})
				}
				if index, err := transcript.Unmarshal(asset.TranscriptJSON); err == nil {
					rows = append(rows, []string{"Transcript",
						fmt.Sprintf("%d segments over %s", len(index.Segments), formatClock(index.Duration))})
				}
				if deletion, err := plan.Unmarshal(asset.DeletionPlanJSON); err == nil && !deletion.Empty() {
					rows = append(rows, []string{"Deletion plan",
						fmt.Sprintf("%d regions, %.1fs", len(deletion.Regions), deletion.DeletedDuration())})
				}
				if asset.PreviewStatus != queue.PreviewNone {
					rows = append(rows, []string{"Preview", string(asset.PreviewStatus)})
				}
				if asset.FinalFile != "" {
					rows = append(rows, []string{"Cleaned audio", asset.FinalFile})
				}
				if asset.ProgressStage != "" {
					rows = append(rows, []string{"Progress",
						fmt.Sprintf("%s %.0f%% (%s)", asset.ProgressStage, asset.ProgressPercent, asset.ProgressMessage)})
				}
				if asset.ErrorMessage != "" {
					rows = append(rows, []string{"Error", asset.ErrorMessage})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Field", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))

				lineage, err := svc.Lineage(runCtx, id)
				if err == nil && len(lineage) > 1 {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, "Iteration chain:")
					for _, link := range lineage {
						marker := " "
						if link.ID == asset.ID {
							marker = "*"
						}
						fmt.Fprintf(out, " %s #%d iteration %d (%s)\n", marker, link.ID, link.IterationNumber, link.Status)
					}
				}
				return nil
			})
		},
	}
}

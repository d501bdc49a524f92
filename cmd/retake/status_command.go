package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"retake/internal/config"
	"retake/internal/deps"
	"retake/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show external tool availability and queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, "External tools:")
				statuses := deps.CheckBinaries(deps.Required(cfg))
				for _, status := range statuses {
					kind := statusOK
					message := status.Command
					if !status.Available {
						kind = statusError
						if status.Optional {
							kind = statusWarn
						}
						message = status.Detail
					}
					fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
				}
				if missing := deps.MissingRequired(statuses); len(missing) > 0 {
					fmt.Fprintf(out, "Missing required tools: %v\n", missing)
				}

				fmt.Fprintln(out, "Queue:")
				summary, err := store.Health(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", summary.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Waiting", statusInfo, fmt.Sprintf("%d", summary.Waiting), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", summary.Processing), colorize))
				fmt.Fprintln(out, renderStatusLine("Reviewing", statusInfo, fmt.Sprintf("%d", summary.Reviewing), colorize))
				failedKind := statusInfo
				if summary.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", summary.Failed), colorize))
				fmt.Fprintln(out, renderStatusLine("Completed", statusInfo, fmt.Sprintf("%d", summary.Completed), colorize))
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"retake/internal/api"
	"retake/internal/config"
	"retake/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the asset queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				assets, err := store.List(runCtx, statuses...)
				if err != nil {
					return err
				}
				if len(assets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Iteration", "Created"},
					buildQueueListRows(assets),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(runCtx)
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var all, completed, failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove assets from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && !completed && !failed {
				return fmt.Errorf("specify --all, --completed, or --failed")
			}
			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				var removed int64
				var err error
				switch {
				case completed:
					removed, err = store.ClearCompleted(runCtx)
				case failed:
					removed, err = store.ClearFailed(runCtx)
				default:
					removed, err = store.Clear(runCtx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d asset(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every asset")
	cmd.Flags().BoolVar(&completed, "completed", false, "Remove completed assets only")
	cmd.Flags().BoolVar(&failed, "failed", false, "Remove failed assets only")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id]...",
		Short: "Reset failed assets so the pipeline retries them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseSegmentIDs(args)
			if err != nil {
				return fmt.Errorf("invalid asset id list: %w", err)
			}
			return ctx.withService(func(runCtx context.Context, svc *api.Service, store *queue.Store) error {
				if len(ids) == 0 {
					updated, err := store.RetryFailed(runCtx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d failed asset(s)\n", updated)
					return nil
				}
				for _, id := range ids {
					if err := svc.RetryFailed(runCtx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Asset #%d reset for retry\n", id)
				}
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return assets stuck in a processing state to their prior step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				updated, err := store.ResetStuckProcessing(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck asset(s)\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				health, err := store.CheckHealth(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Database", boolKind(health.DatabaseReadable), health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Schema", boolKind(health.TableExists && len(health.MissingColumns) == 0),
					fmt.Sprintf("version %s", health.SchemaVersion), colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Assets", statusInfo, fmt.Sprintf("%d total", health.TotalAssets), colorize))
				if len(health.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(health.MissingColumns, ", "))
				}
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}

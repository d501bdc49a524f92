package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"retake/internal/daemon"
	"retake/internal/dedupe"
	"retake/internal/logging"
	"retake/internal/queue"
	"retake/internal/reconstruct"
	"retake/internal/stt"
	"retake/internal/workflow"
)

// newDaemonCommand runs the background pipeline in the foreground until
// interrupted. Assets advance automatically up to review; confirmed assets
// are reconstructed automatically.
func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the processing pipeline until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			manager := workflow.NewManager(cfg, store, logger)
			manager.ConfigureStages(workflow.StageSet{
				Transcriber:   stt.NewStage(cfg, store, logger),
				Detector:      dedupe.NewStage(cfg, store, logger),
				Reconstructor: reconstruct.NewStage(cfg, store, logger),
			})

			d, err := daemon.New(cfg, store, logger, manager)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retake daemon running (log: %s)\n", d.LogPath())

			<-signalCtx.Done()
			logger.Info("retake daemon shutting down")
			d.Stop()
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"retake/internal/config"
	"retake/internal/queue"
)

var audioFileExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".m4b":  {},
	".flac": {},
	".aac":  {},
	".ogg":  {},
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var referenceFlag string

	cmd := &cobra.Command{
		Use:   "add <audio-file>",
		Short: "Add a narration recording to the processing queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := resolveAudioPath(args[0])
			if err != nil {
				return err
			}

			reference := strings.TrimSpace(referenceFlag)
			if reference != "" {
				reference, err = config.ExpandPath(reference)
				if err != nil {
					return fmt.Errorf("resolve reference path: %w", err)
				}
				if _, err := os.Stat(reference); err != nil {
					return fmt.Errorf("inspect reference script: %w", err)
				}
			}

			return ctx.withStore(func(runCtx context.Context, _ *config.Config, store *queue.Store) error {
				asset, err := store.NewAsset(runCtx, absPath, reference)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued asset #%d (%s)\n", asset.ID, filepath.Base(absPath))
				if reference != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Reference script: %s\n", reference)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&referenceFlag, "reference", "r", "", "Reference script to align the transcript against")
	return cmd
}

func resolveAudioPath(arg string) (string, error) {
	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", absPath)
	}

	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := audioFileExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
	return absPath, nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"log/slog"

	"retake/internal/api"
	"retake/internal/config"
	"retake/internal/logging"
	"retake/internal/queue"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// cliLogger writes structured logs to the shared log file only, keeping
// stdout free for rendered command output.
func (c *commandContext) cliLogger(cfg *config.Config) (*slog.Logger, error) {
	logPath := filepath.Join(cfg.Paths.LogDir, "retake.log")
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
}

func (c *commandContext) withStore(fn func(ctx context.Context, cfg *config.Config, store *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), cfg, store)
}

func (c *commandContext) withService(fn func(ctx context.Context, svc *api.Service, store *queue.Store) error) error {
	return c.withStore(func(ctx context.Context, cfg *config.Config, store *queue.Store) error {
		logger, err := c.cliLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return fn(ctx, api.NewService(cfg, store, logger), store)
	})
}

func parseAssetID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid asset id %q", arg)
	}
	return id, nil
}

func parseSegmentIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid segment id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-digest/internal/schedule"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the digest on the configured daily schedule",
	Long: `Watch blocks and runs one digest pass at the configured check time
every day (or every weekday with schedule.weekdays_only). Failures of a
scheduled pass are logged and the schedule keeps running.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if err := validatePostingConfig(cfg); err != nil {
		return err
	}

	pipeline, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.New(cfg.Schedule, os.Stdout)
	err = scheduler.Run(ctx, func(taskCtx context.Context) error {
		return pipeline.Run(taskCtx, nil, cfg.Scrape.MaxPapers)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

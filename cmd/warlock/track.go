package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	trackOnce   bool
	trackSource string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Poll the scraped schedule and report changes",
	Long:  `Read the scraped schedule file every TRACKER_INTERVAL, diff it against the stored snapshot and notify on changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trackSource != "" {
			if err := os.Setenv("TRACKER_SNAPSHOT_FILE", trackSource); err != nil {
				return err
			}
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		a.startNotifications(ctx)

		if a.fileStore != nil && a.cfg.Tracker.SnapshotArchive {
			if removed, err := a.fileStore.PruneHistory(a.cfg.Tracker.SnapshotHistoryRetention); err != nil {
				a.logger.Warn("failed to prune snapshot history", zap.Error(err))
			} else if len(removed) > 0 {
				a.logger.Info("pruned snapshot history", zap.Int("removed", len(removed)))
			}
		}

		if trackOnce {
			result, err := a.tracker.Check(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added=%d removed=%d modified=%d first_run=%t\n",
				len(result.Changeset.Added), len(result.Changeset.Removed), len(result.Changeset.Modified), result.FirstRun)
			return nil
		}

		a.logger.Info("tracker started", zap.Duration("interval", a.cfg.Tracker.Interval))
		if err := a.tracker.Run(ctx, a.cfg.Tracker.Interval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().BoolVar(&trackOnce, "once", false, "Run a single check and exit")
	trackCmd.Flags().StringVar(&trackSource, "source", "", "Scraped schedule file (overrides TRACKER_SNAPSHOT_FILE)")
}

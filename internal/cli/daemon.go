package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/metrics"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run sync on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, cleanup, err := buildSyncer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.MetricsAddr != "" {
			go func() {
				logging.Info("serving metrics", logging.String("addr", cfg.MetricsAddr))
				if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
					logging.Error("metrics server", logging.Err(err))
				}
			}()
		}

		// One pipeline run at a time; an overlapping tick is skipped,
		// not queued. The next tick converges anyway.
		var running sync.Mutex
		runOnce := func() {
			if !running.TryLock() {
				logging.Warn("previous run still in progress, skipping tick")
				return
			}
			defer running.Unlock()
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("sync run failed", logging.Err(err))
			}
		}

		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule, runOnce); err != nil {
			return err
		}
		c.Start()
		logging.Info("daemon started", logging.String("schedule", cfg.Schedule))

		runOnce()

		<-ctx.Done()
		logging.Info("shutting down, waiting for current run")
		<-c.Stop().Done()
		running.Lock() // wait for an in-flight immediate run
		running.Unlock()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(daemonCmd)
}

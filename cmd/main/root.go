package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulbfinder/harvester/internal/config"
	"bulbfinder/harvester/internal/container"
	"bulbfinder/harvester/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvests year/make/model bulb fitments from the Sylvania bulb finder.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHarvest,
	}

	f := cmd.PersistentFlags()
	f.String("config", "", "Path to a YAML config file (default ./config.yaml if present)")
	f.String("output", "sylvania_fitment_data.csv", "CSV file to write results to")
	f.String("checkpoint", "scraping_progress.json", "Progress file used to resume interrupted runs")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")

	f = cmd.Flags()
	f.Bool("headless", true, "Run the browser in headless mode")
	f.Bool("no-headless", false, "Run the browser with a visible window")
	f.Bool("use-proxy", false, "Route the browser through a proxy from the proxy list")
	f.String("proxy-file", "proxies.txt", "File with one proxy URL per line")
	f.Float64("min-delay", 3, "Minimum delay between actions in seconds")
	f.Float64("max-delay", 7, "Maximum delay between actions in seconds")

	cmd.AddCommand(newStatusCmd())
	return cmd
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorf("❌ %v", err)
		return 1
	}
	return 0
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Info("🚀 Starting bulb finder harvester...")

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	summary, err := app.Run(ctx)
	logSummary(summary)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("🛑 Harvest interrupted by user, run again to resume")
			return nil
		}
		return err
	}
	return nil
}

func logSummary(summary *service.Summary) {
	if summary == nil {
		return
	}
	log.WithFields(log.Fields{
		"elapsed":  summary.Elapsed.Round(time.Second).String(),
		"raw":      summary.Raw,
		"unique":   summary.Unique,
		"models":   summary.Models,
		"skipped":  summary.SkippedBranches,
		"aborted":  len(summary.AbortedYears),
		"resumed":  summary.Resumed,
		"progress": summary.CheckpointKept,
	}).Infof("📊 Run finished in %s: %d records (%d unique)", summary.Elapsed.Round(time.Second), summary.Raw, summary.Unique)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agmipkit/internal/config"
	"agmipkit/internal/logging"
	"agmipkit/internal/metrics"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	metricsFile string

	// Runtime state set up before every command
	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	runID    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agmip",
	Short: "agmip - soil layer reduction and experiment data helpers for AgMIP ACE datasets",
	Long: `agmip prepares AgMIP ACE datasets for crop models.

It reduces soil profiles to the few layers a target model accepts, merges
initial conditions into them, and fills experiment management events
(planting, fertilizer, organic matter) from simple rules.

Settings come from the YAML file given by --config, then AGMIP_* environment
variables, then command flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		recorder = metrics.New()
		runID = uuid.NewString()
		logger = logger.With(zap.String("run_id", runID))
		logging.Get(logger, logging.CategoryBoot).Debug("configuration loaded",
			zap.String("config", configPath),
			zap.String("target_model", cfg.Reducer.TargetModel),
			zap.Int("max_layers", cfg.Reducer.MaxLayers))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() {
			if logger != nil {
				_ = logger.Sync()
			}
		}()
		return writeMetrics()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agmip.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics to this file on exit")

	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(rootDistCmd)
	rootCmd.AddCommand(stableCCmd)
	rootCmd.AddCommand(plantingCmd)
	rootCmd.AddCommand(fertCmd)
	rootCmd.AddCommand(omCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeMetrics() error {
	if metricsFile == "" || recorder == nil {
		return nil
	}
	if err := recorder.WriteTextfile(metricsFile); err != nil {
		return err
	}
	logging.Get(logger, logging.CategoryMetrics).Debug("metrics written", zap.String("path", metricsFile))
	return nil
}

// commandContext returns the command context, which is unset when a RunE is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

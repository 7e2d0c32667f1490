package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agmipkit/internal/ace"
	"agmipkit/internal/logging"
	"agmipkit/internal/soil"
)

var (
	reduceOutDir     string
	reduceModel      string
	reduceMaxLayers  int
	reduceMergeStage string
)

// reduceCmd reduces the soil profile of every experiment in one or more datasets
var reduceCmd = &cobra.Command{
	Use:   "reduce <dataset.json>...",
	Short: "Reduce soil profiles to the layers a crop model accepts",
	Long: `Merges initial conditions into each experiment's soil layers and reduces the
profile: adjacent layers with similar water reserve and bulk density are
aggregated, and the profile is capped at --max-layers. The reduced layers carry
their thickness in sllb.

Files are processed concurrently (batch.concurrency). Each result is written to
--out-dir under the input file name, or next to the input as <name>.reduced.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReduce,
}

func init() {
	reduceCmd.Flags().StringVarP(&reduceOutDir, "out-dir", "o", "", "Output directory (default: next to each input)")
	reduceCmd.Flags().StringVar(&reduceModel, "model", "", "Target model: stics, aquacrop (default from config)")
	reduceCmd.Flags().IntVar(&reduceMaxLayers, "max-layers", 0, "Maximum number of output layers (default from config)")
	reduceCmd.Flags().StringVar(&reduceMergeStage, "merge-stage", "", "Initial condition merge stage: before, after (default from config)")
}

// runReduce processes the dataset files named in args
func runReduce(cmd *cobra.Command, args []string) error {
	pipeline, err := newPipeline()
	if err != nil {
		return err
	}
	log := logging.Get(logger, logging.CategoryReduce)
	log.Info("reducing datasets",
		zap.Int("files", len(args)),
		zap.String("stage", string(pipeline.Stage)),
		zap.Int("max_layers", pipeline.Reducer.MaxLayers()))

	g, ctx := errgroup.WithContext(commandContext(cmd))
	g.SetLimit(cfg.Batch.Concurrency)
	for _, path := range args {
		g.Go(func() error {
			start := time.Now()
			n, err := reduceFile(ctx, pipeline, path, outputPath(path))
			recorder.ObserveDataset(err, time.Since(start))
			if err != nil {
				log.Error("dataset reduction failed", zap.String("file", path), zap.Error(err))
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Info("dataset reduced",
				zap.String("file", path),
				zap.Int("experiments", n),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	return g.Wait()
}

// newPipeline builds the reduction pipeline from the config and the command flags.
func newPipeline() (*soil.Pipeline, error) {
	model := cfg.Reducer.TargetModel
	if reduceModel != "" {
		model = reduceModel
	}
	maxLayers := cfg.Reducer.MaxLayers
	if reduceMaxLayers > 0 {
		maxLayers = reduceMaxLayers
	}
	stageName := cfg.Reducer.MergeStage
	if reduceMergeStage != "" {
		stageName = reduceMergeStage
	}
	stage, err := soil.ParseStage(stageName)
	if err != nil {
		return nil, err
	}

	soilLog := logging.Get(logger, logging.CategorySoil)
	opts := append(cfg.CriterionOptions(), soil.WithCriterionLogger(soilLog))
	strategy, err := soil.NewStrategy(model, opts...)
	if err != nil {
		return nil, err
	}
	reducer, err := soil.NewReducer(strategy,
		soil.WithMaxLayers(maxLayers),
		soil.WithLogger(soilLog),
		soil.WithObserver(recorder))
	if err != nil {
		return nil, err
	}
	return &soil.Pipeline{Reducer: reducer, Stage: stage, Logger: soilLog}, nil
}

func outputPath(input string) string {
	if reduceOutDir != "" {
		return filepath.Join(reduceOutDir, filepath.Base(input))
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".reduced" + ext
}

// reduceFile reduces every experiment of one dataset and writes the result. A soil record shared
// by several experiments is reduced once. It returns the number of reduced experiments.
func reduceFile(ctx context.Context, pipeline *soil.Pipeline, in, out string) (int, error) {
	ds, err := ace.ReadFile(in)
	if err != nil {
		return 0, err
	}
	exps := ds.Experiments()
	if len(exps) == 0 {
		return 0, ace.ErrNoExperiments
	}

	log := logging.Get(logger, logging.CategoryReduce).With(zap.String("file", in))
	reducedSoils := make(map[uintptr]bool)
	n := 0
	for _, exp := range exps {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		layers := exp.SoilLayers()
		if len(layers) == 0 {
			log.Warn("experiment has no soil layers", zap.String("experiment", exp.Name()))
			continue
		}
		soilKey := exp.Soil().Identity()
		if reducedSoils[soilKey] {
			log.Debug("soil already reduced",
				zap.String("experiment", exp.Name()),
				zap.String("soil_id", exp.Soil().Value(ace.KeySoilID)))
			continue
		}
		reducedSoils[soilKey] = true

		reduced, err := pipeline.Run(layers, exp.InitialLayers())
		if err != nil {
			return n, fmt.Errorf("experiment %s: %w", exp.Name(), err)
		}
		exp.SetSoilLayers(reduced)
		n++
	}

	if err := ds.WriteFile(out); err != nil {
		return n, err
	}
	return n, nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agmipkit/internal/ace"
	"agmipkit/internal/experiment"
	"agmipkit/internal/logging"
	"agmipkit/internal/soil"
)

// Flag values of the dataset helper commands.
var (
	helperOut string

	rootDistM, rootDistPP, rootDistRD string

	stableCSom3, stableCPP, stableCRD string

	plantingEarliest, plantingLatest, plantingRain, plantingDays string

	fertNum, fertFecd, fertFeacd, fertFedep string
	fertOffsets, fertPtps                   []string

	omOffset, omOmcd, omOmc2n, omOmdep, omOminp, omDmr string
)

var rootDistCmd = &cobra.Command{
	Use:   "rootdist <dataset.json>",
	Short: "Set the root growth factor (slrgf) of every soil layer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDataset(cmd, args[0], func(exp *ace.Experiment) error {
			if exp.Soil() == nil {
				return fmt.Errorf("soil: %w", experiment.ErrNoData)
			}
			layers := exp.SoilLayers()
			if err := soil.RootDistribution(layers, rootDistM, rootDistPP, rootDistRD); err != nil {
				return err
			}
			exp.SetSoilLayers(layers)
			return nil
		})
	},
}

var stableCCmd = &cobra.Command{
	Use:   "stablec <dataset.json>",
	Short: "Set the stable organic carbon (slsc) of every initial condition layer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDataset(cmd, args[0], func(exp *ace.Experiment) error {
			return experiment.StableCDistribution(exp, stableCSom3, stableCPP, stableCRD)
		})
	},
}

var plantingCmd = &cobra.Command{
	Use:   "planting <dataset.json>",
	Short: "Date planting events on the first day with enough accumulated rain",
	Long: `For every simulated year, finds the first day between --earliest and --latest
(MM-DD) on which the rain of the last --days days reaches --rain mm, and sets
the planting event date to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Get(logger, logging.CategoryExperiment)
		return applyToDataset(cmd, args[0], func(exp *ace.Experiment) error {
			dates, err := experiment.AutoPlantingDate(exp, plantingEarliest, plantingLatest, plantingRain, plantingDays)
			if err != nil {
				return err
			}
			if len(dates) == 0 {
				log.Info("no appropriate planting date found", zap.String("experiment", exp.Name()))
				return nil
			}
			log.Info("planting dates set", zap.String("experiment", exp.Name()), zap.Strings("dates", dates))
			return nil
		})
	},
}

var fertCmd = &cobra.Command{
	Use:   "fert <dataset.json>",
	Short: "Split fen_tot into fertilizer events relative to planting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDataset(cmd, args[0], func(exp *ace.Experiment) error {
			return experiment.FertDistribution(exp, fertNum, fertFecd, fertFeacd, fertFedep, fertOffsets, fertPtps)
		})
	},
}

var omCmd = &cobra.Command{
	Use:   "om <dataset.json>",
	Short: "Complete the organic matter application event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToDataset(cmd, args[0], func(exp *ace.Experiment) error {
			return experiment.OMDistribution(exp, omOffset, omOmcd, omOmc2n, omOmdep, omOminp, omDmr)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{rootDistCmd, stableCCmd, plantingCmd, fertCmd, omCmd} {
		c.Flags().StringVarP(&helperOut, "out", "o", "", "Output file (default: stdout)")
	}

	rootDistCmd.Flags().StringVar(&rootDistM, "m", "1", "Maximum root growth factor in the topsoil")
	rootDistCmd.Flags().StringVar(&rootDistPP, "pp", "20", "Depth of the constant topsoil factor (cm)")
	rootDistCmd.Flags().StringVar(&rootDistRD, "rd", "180", "Depth where the factor reaches 2% (cm)")

	stableCCmd.Flags().StringVar(&stableCSom3, "som3", "0.55", "Stable fraction of organic carbon at the surface")
	stableCCmd.Flags().StringVar(&stableCPP, "pp", "20", "Depth of the constant topsoil fraction (cm)")
	stableCCmd.Flags().StringVar(&stableCRD, "rd", "60", "Depth where carbon is about 98% stable (cm)")

	plantingCmd.Flags().StringVar(&plantingEarliest, "earliest", "", "Earliest planting date (MM-DD)")
	plantingCmd.Flags().StringVar(&plantingLatest, "latest", "", "Latest planting date (MM-DD)")
	plantingCmd.Flags().StringVar(&plantingRain, "rain", "", "Accumulated rainfall threshold (mm)")
	plantingCmd.Flags().StringVar(&plantingDays, "days", "", "Number of days of accumulation")
	for _, name := range []string{"earliest", "latest", "rain", "days"} {
		_ = plantingCmd.MarkFlagRequired(name)
	}

	fertCmd.Flags().StringVar(&fertNum, "num", "", "Number of applications")
	fertCmd.Flags().StringVar(&fertFecd, "fecd", "", "Fertilizer type code")
	fertCmd.Flags().StringVar(&fertFeacd, "feacd", "", "Application method code")
	fertCmd.Flags().StringVar(&fertFedep, "fedep", "", "Application depth (cm)")
	fertCmd.Flags().StringSliceVar(&fertOffsets, "offsets", nil, "Days after planting, one per application")
	fertCmd.Flags().StringSliceVar(&fertPtps, "ptps", nil, "Percent of fen_tot, one per application")
	for _, name := range []string{"num", "offsets", "ptps"} {
		_ = fertCmd.MarkFlagRequired(name)
	}

	omCmd.Flags().StringVar(&omOffset, "offset", "", "Days from planting (negative = before)")
	omCmd.Flags().StringVar(&omOmcd, "omcd", "", "Organic matter type code")
	omCmd.Flags().StringVar(&omOmc2n, "omc2n", "", "C:N ratio")
	omCmd.Flags().StringVar(&omOmdep, "omdep", "", "Incorporation depth (cm)")
	omCmd.Flags().StringVar(&omOminp, "ominp", "", "Incorporation percentage")
	omCmd.Flags().StringVar(&omDmr, "dmr", "", "Dry matter ratio")
	for _, name := range []string{"offset", "omc2n", "dmr"} {
		_ = omCmd.MarkFlagRequired(name)
	}
}

// applyToDataset runs fn on every experiment of a dataset and writes the updated dataset to
// --out, or to the command output. An experiment lacking the data fn needs is logged and left
// unchanged; any other error aborts the command.
func applyToDataset(cmd *cobra.Command, path string, fn func(*ace.Experiment) error) error {
	ds, err := ace.ReadFile(path)
	if err != nil {
		return err
	}
	exps := ds.Experiments()
	if len(exps) == 0 {
		return ace.ErrNoExperiments
	}

	log := logging.Get(logger, logging.CategoryExperiment)
	for _, exp := range exps {
		err := fn(exp)
		if errors.Is(err, experiment.ErrNoData) || errors.Is(err, soil.ErrEmptyProfile) {
			log.Warn("experiment skipped",
				zap.String("command", cmd.Name()),
				zap.String("experiment", exp.Name()),
				zap.Error(err))
			continue
		}
		if err != nil {
			log.Error("experiment update failed",
				zap.String("command", cmd.Name()),
				zap.String("experiment", exp.Name()),
				zap.Error(err))
			return fmt.Errorf("experiment %s: %w", exp.Name(), err)
		}
	}
	log.Debug("dataset updated", zap.String("command", cmd.Name()), zap.Int("experiments", len(exps)))

	if helperOut != "" {
		return ds.WriteFile(helperOut)
	}
	return ds.Write(cmd.OutOrStdout())
}


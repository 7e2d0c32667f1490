package experiment

import (
	"fmt"
	"math"
	"strconv"

	"agmipkit/internal/ace"
	"agmipkit/internal/soil"
)

// StableCDistribution sets the stable organic carbon (slsc, g[C]/100g[soil]) of every
// initial-condition layer from the matching soil layer's sloc. som3_0 is the stable fraction at
// the surface, constant down to pp cm and approaching 98% at rd cm.
func StableCDistribution(exp *ace.Experiment, som3_0, pp, rd string) error {
	som3, err := parseFloat("som3_0", som3_0)
	if err != nil {
		return err
	}
	pivot, err := parseFloat("pp", pp)
	if err != nil {
		return err
	}
	depth, err := parseFloat("rd", rd)
	if err != nil {
		return err
	}
	k := soil.DecayRate(pivot, depth)
	som2 := 0.95 * (1 - som3)

	if exp.Soil() == nil {
		return missing("soil")
	}
	layers := exp.SoilLayers()
	if len(layers) == 0 {
		return missing("soil layers")
	}
	sllb := make([]float64, len(layers))
	sloc := make([]float64, len(layers))
	for i, layer := range layers {
		if sllb[i], err = layer.Float(soil.FieldSLLB); err != nil {
			return fmt.Errorf("soil layer %d: %w", i+1, err)
		}
		if sloc[i], err = layer.Float(soil.FieldSLOC); err != nil {
			return fmt.Errorf("soil layer %d: %w", i+1, err)
		}
	}

	ic := exp.InitialLayers()
	if len(ic) == 0 {
		return missing("initial condition layers")
	}
	if len(ic) != len(layers) {
		return fmt.Errorf("%d initial condition layers for %d soil layers: %w", len(ic), len(layers), ErrLayerMismatch)
	}

	upper := 0.0
	for i := range ic {
		mid := (sllb[i] + upper) / 2
		upper = sllb[i]
		f := soil.GrowthFactor(mid, pivot, k, som2)
		stable := 1 - math.Max(0.02, f)/0.95
		ic[i][soil.FieldSLSC] = strconv.FormatFloat(sloc[i]*stable, 'f', 2, 64)
	}
	exp.SetInitialLayers(ic)
	return nil
}

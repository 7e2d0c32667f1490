package soil

import (
	"fmt"
	"math"
	"strconv"
)

// GrowthFactor returns a soil factor that is m down to the pivot depth pp and declines
// exponentially with rate k below it. mid is the layer mid-point depth in cm.
func GrowthFactor(mid, pp, k, m float64) float64 {
	if mid <= pp {
		return m
	}
	return m * math.Exp(k*(mid-pp))
}

// DecayRate returns the exponential rate for which a factor falls to 2% between the pivot depth
// pp and the depth rd.
func DecayRate(pp, rd float64) float64 {
	return math.Log(0.02) / (rd - pp)
}

// RootDistribution sets the root growth factor (slrgf, 3 decimals) of each layer of a depth
// profile. m is the maximum factor in the top pp cm and rd the depth where roots reach 2% of it.
// Layers are modified in place.
func RootDistribution(layers DepthProfile, m, pp, rd string) error {
	if len(layers) == 0 {
		return ErrEmptyProfile
	}
	params, err := parseFloats(map[string]string{"m": m, "pp": pp, "rd": rd})
	if err != nil {
		return err
	}
	depths := make([]float64, len(layers))
	for i, layer := range layers {
		if depths[i], err = layer.Float(FieldSLLB); err != nil {
			return fmt.Errorf("layer %d: %w", i+1, err)
		}
	}

	k := DecayRate(params["pp"], params["rd"])
	upper := 0.0
	for i, layer := range layers {
		mid := (depths[i] + upper) / 2
		upper = depths[i]
		layer[FieldSLRGF] = strconv.FormatFloat(GrowthFactor(mid, params["pp"], k, params["m"]), 'f', 3, 64)
	}
	return nil
}

func parseFloats(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input number %s=%q: %w", name, s, err)
		}
		out[name] = v
	}
	return out, nil
}

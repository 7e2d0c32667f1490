package soil

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// boundaryTolerance absorbs formatting differences such as "20" versus "20.0".
const boundaryTolerance = 1e-6

// MergeInitialConditions copies initial-condition layers into the soil layers at the same
// position when their boundaries agree (icbl == sllb, compared numerically). A position whose
// boundaries disagree, or that has no initial-condition layer, is logged and left untouched; the
// remaining positions are still merged. An empty initial-condition sequence is logged as an error
// and changes nothing.
//
// soilLayers are modified in place. The number of merged positions is returned.
func MergeInitialConditions(logger *zap.Logger, soilLayers, initLayers []Layer) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("merging initial conditions",
		zap.Int("init_layers", len(initLayers)),
		zap.Int("soil_layers", len(soilLayers)))
	if len(initLayers) == 0 {
		logger.Error("unable to merge soil information, no initial condition layers")
		return 0
	}

	merged := 0
	for i, soilLayer := range soilLayers {
		if i >= len(initLayers) {
			logger.Error("unable to merge soil information, inconsistent soil information",
				zap.Int("position", i+1),
				zap.String("sllb", soilLayer[FieldSLLB]),
				zap.String("icbl", ""))
			continue
		}
		ic := initLayers[i]
		if !sameBoundary(ic[FieldICBL], soilLayer[FieldSLLB]) {
			logger.Error("unable to merge soil information, inconsistent soil information",
				zap.Int("position", i+1),
				zap.String("sllb", soilLayer[FieldSLLB]),
				zap.String("icbl", ic[FieldICBL]))
			continue
		}
		for k, v := range ic {
			soilLayer[k] = v
		}
		merged++
	}
	return merged
}

func sameBoundary(icbl, sllb string) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(icbl), 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(sllb), 64)
	if err != nil {
		return false
	}
	return math.Abs(a-b) <= boundaryTolerance
}

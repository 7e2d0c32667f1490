package soil

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Stage selects where initial-condition layers join the profile.
type Stage string

const (
	// StageBefore merges initial conditions into the raw depth profile (icbl against cumulative
	// sllb) so that the reducer aggregates them with the soil fields.
	StageBefore Stage = "before"
	// StageAfter merges initial conditions into the reduced profile (icbl against thickness).
	StageAfter Stage = "after"
)

// ParseStage converts a configuration string to a Stage.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageBefore, "":
		return StageBefore, nil
	case StageAfter:
		return StageAfter, nil
	}
	return "", fmt.Errorf("invalid merge stage %q (valid: before, after)", s)
}

// Pipeline runs the full profile preparation: initial-condition merge, thickness conversion and
// reduction.
type Pipeline struct {
	Reducer *Reducer
	Stage   Stage
	Logger  *zap.Logger
}

// Run prepares a raw depth profile and its initial-condition layers. Neither input is modified.
// An empty initial-condition sequence skips the merge and is logged as an error.
func (p *Pipeline) Run(depth DepthProfile, initLayers []Layer) (ThicknessProfile, error) {
	if p.Reducer == nil {
		return nil, errors.New("pipeline requires a reducer")
	}
	if len(depth) == 0 {
		return nil, ErrEmptyProfile
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	working := make(DepthProfile, len(depth))
	for i, layer := range depth {
		working[i] = layer.Clone()
	}

	stage := p.Stage
	if stage == "" {
		stage = StageBefore
	}
	if stage == StageBefore {
		MergeInitialConditions(logger, working, initLayers)
		fillInitialConditions(working, initLayers)
	}

	thickness, err := working.Thickness()
	if err != nil {
		return nil, fmt.Errorf("convert soil depths: %w", err)
	}
	reduced, err := p.Reducer.Reduce(thickness)
	if err != nil {
		return nil, fmt.Errorf("reduce soil layers: %w", err)
	}

	if stage == StageAfter {
		MergeInitialConditions(logger, reduced, initLayers)
	}
	return reduced, nil
}

// fillInitialConditions gives every layer the initial-condition value fields, using the default
// value where a position was not merged. Normalize keeps only the fields of the first layer, so
// a mismatch there would otherwise drop the merged values of every later layer.
func fillInitialConditions(layers DepthProfile, initLayers []Layer) {
	fields := make(map[string]bool)
	for _, ic := range initLayers {
		for k := range ic {
			if k != FieldICBL {
				fields[k] = true
			}
		}
	}
	for _, layer := range layers {
		for k := range fields {
			if _, ok := layer[k]; !ok {
				layer[k] = DefaultValue(k)
			}
		}
	}
}

// Package experiment fills in experiment management and initial-condition data from simple
// rules: rain-triggered planting dates, split fertilizer applications, organic matter
// applications and the stable carbon fraction of each soil layer.
//
// Every helper works on an ace.Experiment view and writes its results back through it.
package experiment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoData is wrapped by every error caused by a missing bucket or value.
	ErrNoData = errors.New("required data is missing")
	// ErrLayerMismatch is returned when soil and initial-condition layers do not line up.
	ErrLayerMismatch = errors.New("initial condition layers do not match soil layers")
)

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func missing(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNoData)
}

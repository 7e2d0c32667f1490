package soil

import (
	"math"

	"go.uber.org/zap"
)

// Default thresholds of the water reserve criterion.
const (
	DefaultWaterReserveThreshold = 10.0 // mm/m
	DefaultBulkDensityThreshold  = 0.08 // g/cm3
)

// Criterion decides whether two adjacent layers are similar enough to be merged.
// current is layer n and previous is layer n-1 (or the running merged layer).
type Criterion interface {
	ShouldMerge(current, previous Layer) (bool, error)
}

// WaterReserveCriterion merges layers whose available water reserve and bulk density are close.
// STICS and AquaCrop both reduce their profiles with it.
type WaterReserveCriterion struct {
	// FirstThreshold bounds the water reserve difference, in mm/m.
	FirstThreshold float64
	// SecondThreshold bounds the bulk density difference, in g/cm3.
	SecondThreshold float64

	logger *zap.Logger
}

// CriterionOption configures a WaterReserveCriterion.
type CriterionOption func(*WaterReserveCriterion)

// WithThresholds overrides both thresholds.
func WithThresholds(waterReserve, bulkDensity float64) CriterionOption {
	return func(c *WaterReserveCriterion) {
		c.FirstThreshold = waterReserve
		c.SecondThreshold = bulkDensity
	}
}

// WithCriterionLogger sets the logger used for per-comparison debug output.
func WithCriterionLogger(logger *zap.Logger) CriterionOption {
	return func(c *WaterReserveCriterion) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewWaterReserveCriterion returns a criterion with the default thresholds.
func NewWaterReserveCriterion(opts ...CriterionOption) *WaterReserveCriterion {
	c := &WaterReserveCriterion{
		FirstThreshold:  DefaultWaterReserveThreshold,
		SecondThreshold: DefaultBulkDensityThreshold,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShouldMerge reports whether both rules hold:
//
//	round2(|ru(current) - ru(previous)|) <= FirstThreshold
//	round2(|slbdm(current) - slbdm(previous)|) <= SecondThreshold
//
// where ru = (sldul - slll) * 1000 is the maximum available water reserve in mm/m.
func (c *WaterReserveCriterion) ShouldMerge(current, previous Layer) (bool, error) {
	ruCurrent, err := waterReserve(current)
	if err != nil {
		return false, err
	}
	ruPrevious, err := waterReserve(previous)
	if err != nil {
		return false, err
	}
	bdCurrent, err := current.Float(FieldSLBDM)
	if err != nil {
		return false, err
	}
	bdPrevious, err := previous.Float(FieldSLBDM)
	if err != nil {
		return false, err
	}

	ruDiff := round2(math.Abs(ruCurrent - ruPrevious))
	bdDiff := round2(math.Abs(bdCurrent - bdPrevious))
	firstRule := ruDiff <= c.FirstThreshold
	secondRule := bdDiff <= c.SecondThreshold

	if c.logger != nil {
		c.logger.Debug("water reserve criterion",
			zap.Float64("ru_current", ruCurrent),
			zap.Float64("ru_previous", ruPrevious),
			zap.Float64("ru_diff", ruDiff),
			zap.Bool("first_rule", firstRule),
			zap.Float64("bd_diff", bdDiff),
			zap.Bool("second_rule", secondRule))
	}
	return firstRule && secondRule, nil
}

func waterReserve(l Layer) (float64, error) {
	dul, err := l.Float(FieldSLDUL)
	if err != nil {
		return 0, err
	}
	ll, err := l.Float(FieldSLLL)
	if err != nil {
		return 0, err
	}
	return (dul - ll) * 1000, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package soil

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownModel is returned by NewStrategy for a target model without a reduction strategy.
var ErrUnknownModel = errors.New("no layer reduction strategy for target model")

// Strategy is the pluggable pair used by the Reducer: when to merge two adjacent layers and what
// the merged layer looks like.
type Strategy interface {
	Criterion
	Merge(current, previous Layer) (Layer, error)
}

// StrategyFuncs adapts two independent functions to a Strategy.
type StrategyFuncs struct {
	ShouldMergeFunc func(current, previous Layer) (bool, error)
	MergeFunc       func(current, previous Layer) (Layer, error)
}

// ShouldMerge implements Criterion.
func (s StrategyFuncs) ShouldMerge(current, previous Layer) (bool, error) {
	return s.ShouldMergeFunc(current, previous)
}

// Merge implements Strategy.
func (s StrategyFuncs) Merge(current, previous Layer) (Layer, error) {
	return s.MergeFunc(current, previous)
}

// mergedFields is the field set of every layer produced by SAStrategy.Merge.
var mergedFields = []string{
	FieldSLLL, FieldSLDUL, FieldSLBDM, FieldSKSAT, FieldSLOC,
	FieldICH2O, FieldSLLB, FieldICNO3, FieldICNH4,
}

// SAStrategy is the STICS / AquaCrop reduction: water reserve and bulk density decide, thickness
// adds up, nitrogen pools are thickness-weighted and everything else is averaged.
type SAStrategy struct {
	Criterion Criterion
}

// NewSAStrategy returns the STICS / AquaCrop strategy backed by a WaterReserveCriterion.
func NewSAStrategy(opts ...CriterionOption) *SAStrategy {
	return &SAStrategy{Criterion: NewWaterReserveCriterion(opts...)}
}

// ShouldMerge delegates to the configured criterion.
func (s *SAStrategy) ShouldMerge(current, previous Layer) (bool, error) {
	return s.Criterion.ShouldMerge(current, previous)
}

// Merge computes the layer replacing current and previous. Both layers must carry thickness in
// sllb. icno3 and icnh4 are weighted by the pre-merge thicknesses when both layers define them;
// other fields are averaged, substituting DefaultValue for a missing side.
func (s *SAStrategy) Merge(current, previous Layer) (Layer, error) {
	curThickness, err := current.Float(FieldSLLB)
	if err != nil {
		return nil, err
	}
	prevThickness, err := previous.Float(FieldSLLB)
	if err != nil {
		return nil, err
	}

	merged := make(Layer, len(mergedFields))
	for _, field := range mergedFields {
		var v float64
		switch {
		case field == FieldSLLB:
			v = curThickness + prevThickness
		case (field == FieldICNO3 || field == FieldICNH4) && has(current, field) && has(previous, field):
			v, err = weightedMean(field, current, previous, curThickness, prevThickness)
		default:
			v, err = mean(field, current, previous)
		}
		if err != nil {
			return nil, err
		}
		merged[field] = FormatValue(v)
	}
	return merged, nil
}

func has(l Layer, field string) bool {
	_, ok := l[field]
	return ok
}

func weightedMean(field string, current, previous Layer, curThickness, prevThickness float64) (float64, error) {
	c, err := current.Float(field)
	if err != nil {
		return 0, err
	}
	p, err := previous.Float(field)
	if err != nil {
		return 0, err
	}
	return (c*curThickness + p*prevThickness) / (curThickness + prevThickness), nil
}

func mean(field string, current, previous Layer) (float64, error) {
	c, err := withDefault(current, field).Float(field)
	if err != nil {
		return 0, err
	}
	p, err := withDefault(previous, field).Float(field)
	if err != nil {
		return 0, err
	}
	return (c + p) / 2, nil
}

func withDefault(l Layer, field string) Layer {
	if has(l, field) {
		return l
	}
	return Layer{field: DefaultValue(field)}
}

// strategyFactories maps lower-case target model names to their strategy constructor.
var strategyFactories = map[string]func(opts ...CriterionOption) Strategy{
	"stics":    func(opts ...CriterionOption) Strategy { return NewSAStrategy(opts...) },
	"aquacrop": func(opts ...CriterionOption) Strategy { return NewSAStrategy(opts...) },
}

// NewStrategy returns the reduction strategy for a target crop model.
func NewStrategy(model string, opts ...CriterionOption) (Strategy, error) {
	factory, ok := strategyFactories[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownModel, model, strings.Join(Models(), ", "))
	}
	return factory(opts...), nil
}

// Models lists the target models NewStrategy knows, sorted.
func Models() []string {
	names := make([]string, 0, len(strategyFactories))
	for name := range strategyFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

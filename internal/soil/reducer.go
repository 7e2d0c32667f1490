package soil

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxLayers is the layer cap applied when no WithMaxLayers option is given.
const DefaultMaxLayers = 5

// ReductionStats summarizes one Reduce call.
type ReductionStats struct {
	LayersIn       int
	LayersOut      int
	CriterionMerge int // merges decided by the strategy's criterion
	ForcedMerge    int // merges forced by the layer cap
}

// Observer receives the statistics of every completed reduction.
type Observer interface {
	ObserveReduction(stats ReductionStats)
}

// Reducer collapses a thickness profile into at most MaxLayers layers. It holds no per-call
// state and is safe for concurrent use on independent profiles.
type Reducer struct {
	strategy  Strategy
	maxLayers int
	logger    *zap.Logger
	observer  Observer
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer) error

// WithMaxLayers sets the hard cap on the number of output layers.
func WithMaxLayers(n int) ReducerOption {
	return func(r *Reducer) error {
		if n < 1 {
			return fmt.Errorf("max layers must be >= 1, got %d", n)
		}
		r.maxLayers = n
		return nil
	}
}

// WithLogger sets the reducer logger.
func WithLogger(logger *zap.Logger) ReducerOption {
	return func(r *Reducer) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// WithObserver registers an observer notified after each successful reduction.
func WithObserver(o Observer) ReducerOption {
	return func(r *Reducer) error {
		r.observer = o
		return nil
	}
}

// NewReducer builds a reducer around a strategy.
func NewReducer(strategy Strategy, opts ...ReducerOption) (*Reducer, error) {
	if strategy == nil {
		return nil, errors.New("reducer requires a strategy")
	}
	r := &Reducer{
		strategy:  strategy,
		maxLayers: DefaultMaxLayers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply reducer option: %w", err)
		}
	}
	return r, nil
}

// MaxLayers returns the configured layer cap.
func (r *Reducer) MaxLayers() int {
	return r.maxLayers
}

// Reduce normalizes the profile and makes a single top-down pass over it. Each layer is merged
// into the running tail when the strategy's criterion says so; once the output reaches MaxLayers
// every remaining layer is merged regardless of the criterion. The input is not modified.
//
// A criterion or merge error aborts the call.
func (r *Reducer) Reduce(profile ThicknessProfile) (ThicknessProfile, error) {
	normalized := Normalize(profile)
	r.logger.Debug("normalized soil layers", zap.Int("layers", len(normalized)))

	out := make(ThicknessProfile, 0, min(len(normalized), r.maxLayers))
	stats := ReductionStats{LayersIn: len(profile)}
	enforce := false
	var previous Layer

	for i, current := range normalized {
		if previous == nil {
			out = append(out, current)
			previous = current
			continue
		}
		if len(out) == r.maxLayers {
			enforce = true
		}

		merge, err := r.strategy.ShouldMerge(current, previous)
		if err != nil {
			return nil, fmt.Errorf("compare layers %d and %d: %w", i, i+1, err)
		}
		if !merge && !enforce {
			r.logger.Debug("keeping soil layer", zap.Int("layer", i+1))
			out = append(out, current)
			previous = current
			continue
		}

		if merge {
			stats.CriterionMerge++
		} else {
			stats.ForcedMerge++
		}
		r.logger.Debug("aggregating soil layers",
			zap.Int("layer", i+1),
			zap.Int("with", i),
			zap.Bool("forced", !merge))

		merged, err := r.strategy.Merge(current, previous)
		if err != nil {
			return nil, fmt.Errorf("merge layers %d and %d: %w", i, i+1, err)
		}
		// previous is always the output tail.
		out[len(out)-1] = merged
		previous = merged
	}

	stats.LayersOut = len(out)
	r.logger.Info("soil layer reduction",
		zap.Int("layers_before", stats.LayersIn),
		zap.Int("layers_after", stats.LayersOut),
		zap.Int("forced_merges", stats.ForcedMerge))
	if r.observer != nil {
		r.observer.ObserveReduction(stats)
	}
	return out, nil
}

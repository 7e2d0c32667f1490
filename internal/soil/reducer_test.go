package soil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type statsRecorder struct {
	stats []ReductionStats
}

func (r *statsRecorder) ObserveReduction(s ReductionStats) {
	r.stats = append(r.stats, s)
}

func never() Strategy {
	sa := NewSAStrategy()
	return StrategyFuncs{
		ShouldMergeFunc: func(current, previous Layer) (bool, error) { return false, nil },
		MergeFunc:       sa.Merge,
	}
}

func always() Strategy {
	sa := NewSAStrategy()
	return StrategyFuncs{
		ShouldMergeFunc: func(current, previous Layer) (bool, error) { return true, nil },
		MergeFunc:       sa.Merge,
	}
}

func uniformProfile(n int) ThicknessProfile {
	p := make(ThicknessProfile, n)
	for i := range p {
		p[i] = Layer{
			FieldSLLB:  "10",
			FieldSLLL:  "0.1",
			FieldSLDUL: fmt.Sprintf("%.2f", 0.2+0.05*float64(i)),
			FieldSLBDM: "1.3",
			FieldSLOC:  "1.0",
		}
	}
	return p
}

func newTestReducer(t *testing.T, s Strategy, opts ...ReducerOption) *Reducer {
	t.Helper()
	r, err := NewReducer(s, opts...)
	require.NoError(t, err)
	return r
}

func TestReducer_Defaults(t *testing.T) {
	r := newTestReducer(t, NewSAStrategy())
	assert.Equal(t, DefaultMaxLayers, r.MaxLayers())

	_, err := NewReducer(nil)
	assert.Error(t, err)

	_, err = NewReducer(NewSAStrategy(), WithMaxLayers(0))
	assert.Error(t, err)
}

func TestReducer_IdentityWhenCriterionNeverFires(t *testing.T) {
	profile := ThicknessProfile{
		{FieldSLLB: "10", FieldSLOC: "1.0", FieldSLBDM: "1.3"},
		{FieldSLLB: "15", FieldSLBDM: "1.4"},
		{FieldSLLB: "20"},
	}
	r := newTestReducer(t, never())

	got, err := r.Reduce(profile)
	require.NoError(t, err)

	if diff := cmp.Diff(Normalize(profile), []Layer(got)); diff != "" {
		t.Errorf("Reduce() should equal Normalize() (-want +got):\n%s", diff)
	}
}

func TestReducer_ForcedAggregationCapsOutput(t *testing.T) {
	profile := uniformProfile(8)
	rec := &statsRecorder{}
	r := newTestReducer(t, never(), WithObserver(rec))

	got, err := r.Reduce(profile)
	require.NoError(t, err)

	require.Len(t, got, DefaultMaxLayers)
	for i := 0; i < 4; i++ {
		assert.Equal(t, "10", got[i][FieldSLLB], "layer %d kept as is", i+1)
	}
	assert.Equal(t, "40.0", got[4][FieldSLLB], "layers 5-8 forced into the tail")

	require.Len(t, rec.stats, 1)
	assert.Equal(t, ReductionStats{LayersIn: 8, LayersOut: 5, CriterionMerge: 0, ForcedMerge: 3}, rec.stats[0])
}

func TestReducer_OutputNeverExceedsMax(t *testing.T) {
	for max := 1; max <= 6; max++ {
		for n := 0; n <= 12; n++ {
			r := newTestReducer(t, never(), WithMaxLayers(max))
			got, err := r.Reduce(uniformProfile(n))
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), max, "max=%d n=%d", max, n)
			assert.Equal(t, min(n, max), len(got), "max=%d n=%d", max, n)
		}
	}
}

func TestReducer_MaxOneCollapsesProfile(t *testing.T) {
	r := newTestReducer(t, never(), WithMaxLayers(1))
	got, err := r.Reduce(uniformProfile(4))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "40.0", got[0][FieldSLLB])
}

func TestReducer_CriterionMerges(t *testing.T) {
	profile := ThicknessProfile{
		{FieldSLLB: "10", FieldSLLL: "0.18", FieldSLDUL: "0.28", FieldSLBDM: "1.40", FieldSLOC: "1.2"},
		{FieldSLLB: "10", FieldSLLL: "0.18", FieldSLDUL: "0.285", FieldSLBDM: "1.42", FieldSLOC: "1.0"},
		{FieldSLLB: "20", FieldSLLL: "0.10", FieldSLDUL: "0.35", FieldSLBDM: "1.60", FieldSLOC: "0.4"},
	}
	rec := &statsRecorder{}
	r := newTestReducer(t, NewSAStrategy(), WithObserver(rec))

	got, err := r.Reduce(profile)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "20.0", got[0][FieldSLLB])
	assert.Equal(t, "1.1", got[0][FieldSLOC])
	assert.Equal(t, "1.41", got[0][FieldSLBDM])
	assert.Equal(t, "20", got[1][FieldSLLB])
	assert.Equal(t, 1, rec.stats[0].CriterionMerge)
	assert.Equal(t, 0, rec.stats[0].ForcedMerge)
}

func TestReducer_MergeRunsIntoTail(t *testing.T) {
	r := newTestReducer(t, always())
	got, err := r.Reduce(uniformProfile(3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "30.0", got[0][FieldSLLB])
	assert.Equal(t, "1.0", got[0][FieldSLOC])
}

func TestReducer_DoesNotMutateInput(t *testing.T) {
	profile := uniformProfile(7)
	snapshot := make(ThicknessProfile, len(profile))
	for i, l := range profile {
		snapshot[i] = l.Clone()
	}

	r := newTestReducer(t, always())
	_, err := r.Reduce(profile)
	require.NoError(t, err)

	if diff := cmp.Diff(snapshot, profile); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestReducer_ParseFailureAborts(t *testing.T) {
	profile := uniformProfile(3)
	profile[2][FieldSLBDM] = "dense"
	rec := &statsRecorder{}
	r := newTestReducer(t, NewSAStrategy(), WithObserver(rec))

	got, err := r.Reduce(profile)
	assert.Nil(t, got)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldSLBDM, fe.Field)
	assert.Empty(t, rec.stats)
}

func TestReducer_ParseFailureInForcedMode(t *testing.T) {
	profile := uniformProfile(3)
	profile[2][FieldSLDUL] = ""
	r := newTestReducer(t, NewSAStrategy(), WithMaxLayers(1))

	_, err := r.Reduce(profile)
	require.Error(t, err)
}

func TestReducer_Empty(t *testing.T) {
	r := newTestReducer(t, NewSAStrategy())
	got, err := r.Reduce(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReducer_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newTestReducer(t, never(), WithLogger(zap.New(core)))

	_, err := r.Reduce(uniformProfile(7))
	require.NoError(t, err)

	entries := logs.FilterMessage("soil layer reduction").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 7, fields["layers_before"])
	assert.EqualValues(t, 5, fields["layers_after"])
	assert.EqualValues(t, 2, fields["forced_merges"])
}

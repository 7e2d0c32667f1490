package soil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestMergeInitialConditions(t *testing.T) {
	soilLayers := []Layer{
		{FieldSLLB: "10.0", FieldSLOC: "1.2"},
		{FieldSLLB: "20.0", FieldSLOC: "0.8"},
	}
	initLayers := []Layer{
		{FieldICBL: "10", FieldICNO3: "4", FieldICH2O: "0.2"},
		{FieldICBL: "20", FieldICNO3: "2", FieldICH2O: "0.25"},
	}
	logger, logs := observedLogger()

	merged := MergeInitialConditions(logger, soilLayers, initLayers)

	assert.Equal(t, 2, merged)
	want := []Layer{
		{FieldSLLB: "10.0", FieldSLOC: "1.2", FieldICBL: "10", FieldICNO3: "4", FieldICH2O: "0.2"},
		{FieldSLLB: "20.0", FieldSLOC: "0.8", FieldICBL: "20", FieldICNO3: "2", FieldICH2O: "0.25"},
	}
	if diff := cmp.Diff(want, soilLayers); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestMergeInitialConditions_EmptyInitLeavesSoilUntouched(t *testing.T) {
	soilLayers := []Layer{{FieldSLLB: "10"}, {FieldSLLB: "20"}}
	before := []Layer{{FieldSLLB: "10"}, {FieldSLLB: "20"}}
	logger, logs := observedLogger()

	require.NotPanics(t, func() {
		assert.Zero(t, MergeInitialConditions(logger, soilLayers, nil))
	})

	if diff := cmp.Diff(before, soilLayers); diff != "" {
		t.Errorf("soil modified (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestMergeInitialConditions_MismatchSkipsOnlyThatPosition(t *testing.T) {
	soilLayers := []Layer{
		{FieldSLLB: "10"},
		{FieldSLLB: "15"},
		{FieldSLLB: "30"},
	}
	initLayers := []Layer{
		{FieldICBL: "10", FieldICNO3: "1"},
		{FieldICBL: "20", FieldICNO3: "2"},
		{FieldICBL: "30", FieldICNO3: "3"},
	}
	logger, logs := observedLogger()

	merged := MergeInitialConditions(logger, soilLayers, initLayers)

	assert.Equal(t, 2, merged)
	assert.Equal(t, "1", soilLayers[0][FieldICNO3])
	assert.NotContains(t, soilLayers[1], FieldICNO3)
	assert.NotContains(t, soilLayers[1], FieldICBL)
	assert.Equal(t, "3", soilLayers[2][FieldICNO3])

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	assert.Equal(t, int64(2), errs[0].ContextMap()["position"])
}

func TestMergeInitialConditions_ShortInitSequence(t *testing.T) {
	soilLayers := []Layer{{FieldSLLB: "10"}, {FieldSLLB: "20"}}
	logger, logs := observedLogger()

	merged := MergeInitialConditions(logger, soilLayers, []Layer{{FieldICBL: "10", FieldICNH4: "0.5"}})

	assert.Equal(t, 1, merged)
	assert.Equal(t, "0.5", soilLayers[0][FieldICNH4])
	assert.NotContains(t, soilLayers[1], FieldICNH4)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestMergeInitialConditions_UnparseableBoundary(t *testing.T) {
	soilLayers := []Layer{{FieldSLLB: "10"}}
	assert.Zero(t, MergeInitialConditions(nil, soilLayers, []Layer{{FieldICBL: "top"}}))
	assert.NotContains(t, soilLayers[0], FieldICBL)
}

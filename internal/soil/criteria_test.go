package soil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soilLayer(sldul, slll, slbdm string) Layer {
	return Layer{FieldSLDUL: sldul, FieldSLLL: slll, FieldSLBDM: slbdm}
}

func TestWaterReserveCriterion_ShouldMerge(t *testing.T) {
	tests := []struct {
		name     string
		current  Layer
		previous Layer
		want     bool
	}{
		{"close reserve and density", soilLayer("0.285", "0.18", "1.45"), soilLayer("0.28", "0.18", "1.40"), true},
		{"reserve difference on threshold", soilLayer("0.29", "0.18", "1.40"), soilLayer("0.28", "0.18", "1.40"), true},
		{"density difference on threshold", soilLayer("0.28", "0.18", "1.48"), soilLayer("0.28", "0.18", "1.40"), true},
		{"reserve too different", soilLayer("0.30", "0.18", "1.40"), soilLayer("0.28", "0.18", "1.40"), false},
		{"density too different", soilLayer("0.28", "0.18", "1.50"), soilLayer("0.28", "0.18", "1.40"), false},
		{"both too different", soilLayer("0.35", "0.10", "1.10"), soilLayer("0.28", "0.18", "1.40"), false},
	}
	c := NewWaterReserveCriterion()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ShouldMerge(tt.current, tt.previous)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWaterReserveCriterion_Thresholds(t *testing.T) {
	current := soilLayer("0.30", "0.18", "1.50")
	previous := soilLayer("0.28", "0.18", "1.40")

	strict := NewWaterReserveCriterion()
	merge, err := strict.ShouldMerge(current, previous)
	require.NoError(t, err)
	assert.False(t, merge)

	loose := NewWaterReserveCriterion(WithThresholds(25, 0.1))
	assert.Equal(t, 25.0, loose.FirstThreshold)
	assert.Equal(t, 0.1, loose.SecondThreshold)
	merge, err = loose.ShouldMerge(current, previous)
	require.NoError(t, err)
	assert.True(t, merge)
}

func TestWaterReserveCriterion_ParseFailure(t *testing.T) {
	c := NewWaterReserveCriterion()

	_, err := c.ShouldMerge(soilLayer("n/a", "0.18", "1.4"), soilLayer("0.28", "0.18", "1.4"))
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldSLDUL, fe.Field)

	_, err = c.ShouldMerge(soilLayer("0.28", "0.18", "1.4"), Layer{FieldSLDUL: "0.28", FieldSLLL: "0.18"})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldSLBDM, fe.Field)
	assert.True(t, fe.Missing)
}

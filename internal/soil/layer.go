// Package soil implements the soil profile transforms used when preparing crop-model inputs:
// thickness conversion, layer normalization, layer reduction and the merge of initial-condition
// layers into a soil profile.
//
// Layers are flat AgMIP records (field code -> string value). The sllb field is overloaded by the
// exchange format: raw profiles carry the cumulative depth of the layer's lower boundary, while the
// reducer works on per-layer thickness. DepthProfile and ThicknessProfile keep the two apart.
package soil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Soil section field codes.
const (
	FieldSLLL  = "slll"  // lower limit (wilting point), cm3/cm3
	FieldSLDUL = "sldul" // drained upper limit, cm3/cm3
	FieldSLBDM = "slbdm" // bulk density, g/cm3
	FieldSKSAT = "sksat" // saturated hydraulic conductivity
	FieldSLLB  = "sllb"  // layer lower boundary (depth) or thickness, cm
	FieldSLOC  = "sloc"  // organic carbon, %
	FieldSLRGF = "slrgf" // root growth factor, 0-1
)

// Initial condition section field codes.
const (
	FieldICBL  = "icbl"  // initial condition layer lower boundary, cm
	FieldICH2O = "ich2o" // initial water content
	FieldICNO3 = "icno3" // initial nitrate
	FieldICNH4 = "icnh4" // initial ammonium
	FieldSLSC  = "slsc"  // stable organic carbon
)

var (
	// ErrEmptyProfile is returned when an operation needs at least one layer.
	ErrEmptyProfile = errors.New("soil profile is empty")

	// ErrNonIncreasingDepth is returned when a depth profile yields a non-positive thickness.
	ErrNonIncreasingDepth = errors.New("soil layer depths must be strictly increasing")
)

// Layer is one soil or initial-condition layer.
type Layer map[string]string

// Clone returns a shallow copy of the layer.
func (l Layer) Clone() Layer {
	out := make(Layer, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Float parses the named field.
func (l Layer) Float(field string) (float64, error) {
	raw, ok := l[field]
	if !ok {
		return 0, &FieldError{Field: field, Missing: true}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Field: field, Value: raw, Err: err}
	}
	return v, nil
}

// DepthProfile is an ordered top-to-bottom sequence of layers whose sllb is the cumulative depth
// of each layer's lower boundary.
type DepthProfile []Layer

// ThicknessProfile is an ordered top-to-bottom sequence of layers whose sllb is the thickness of
// each layer alone.
type ThicknessProfile []Layer

// Thickness converts cumulative depths to per-layer thickness. The receiver is not modified.
func (p DepthProfile) Thickness() (ThicknessProfile, error) {
	out := make(ThicknessProfile, 0, len(p))
	var upper float64
	for i, layer := range p {
		depth, err := layer.Float(FieldSLLB)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		thickness := depth - upper
		if thickness <= 0 {
			return nil, fmt.Errorf("layer %d: depth %s after %s: %w", i+1, FormatValue(depth), FormatValue(upper), ErrNonIncreasingDepth)
		}
		converted := layer.Clone()
		converted[FieldSLLB] = FormatValue(thickness)
		out = append(out, converted)
		upper = depth
	}
	return out, nil
}

// FieldError reports a layer field that is missing or not numeric.
type FieldError struct {
	Field   string
	Value   string
	Missing bool
	Err     error
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("soil field %q is missing", e.Field)
	}
	return fmt.Sprintf("soil field %q has non-numeric value %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FormatValue renders a computed value the way AgMIP records carry decimals: shortest
// representation, always with a fractional part ("20.0", "2.5"). Binary noise below 1e-9 is dropped.
func FormatValue(v float64) string {
	if !math.IsInf(v, 0) && !math.IsNaN(v) {
		v = math.Round(v*1e9) / 1e9
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

package attribution

import (
	"math"
	"strconv"
)

// Number is a float64 that encodes non-finite values as JSON null.
// Regression statistics are NaN or ±Inf for degenerate windows (zero
// variance, a single regressor's F) and encoding/json rejects those.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Finite reports whether n is neither NaN nor ±Inf.
func (n Number) Finite() bool {
	v := float64(n)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package evaluate

import (
	"encoding/json"
	"math"
)

// NullFloat is a float64 that marshals NaN and infinities as JSON null.
// Windowed AUC is undefined when a window's labels are single-class, and
// memory samples can fail; both serialize as null rather than poisoning the
// artifact with invalid JSON.
type NullFloat float64

// Valid reports whether the value is finite.
func (f NullFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}

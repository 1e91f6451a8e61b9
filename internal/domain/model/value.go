package model

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Value is a percentile that is either present or missing.
// The zero Value is Missing.
type Value struct {
	v  float64
	ok bool
}

// Missing returns a Value with no number.
func Missing() Value { return Value{} }

// Present wraps a number. NaN and ±Inf become Missing.
func Present(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// FromPtr converts a nullable column value.
func FromPtr(p *float64) Value {
	if p == nil {
		return Value{}
	}
	return Present(*p)
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether no number is held.
func (v Value) IsMissing() bool { return !v.ok }

// Or returns the number, or def when missing. Only presentation code should use this.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

// Ptr returns a pointer to the number, or nil when missing.
func (v Value) Ptr() *float64 {
	if !v.ok {
		return nil
	}
	x := v.v
	return &x
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.ok {
		return "missing"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes Missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.v, 'f', -1, 64), nil
}

// UnmarshalJSON decodes null as Missing.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == "" {
		*v = Missing()
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "decode value %q", s)
	}
	*v = Present(f)
	return nil
}

// ParseValue parses a textual cell; blank, "nan", "null" and "na" mean Missing.
func ParseValue(s string) (Value, error) {
	switch s {
	case "", "nan", "NaN", "null", "NULL", "na", "NA", "None":
		return Missing(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing(), errors.Wrapf(err, "parse value %q", s)
	}
	return Present(f), nil
}

// Mean returns the arithmetic mean of the present values, or Missing if none are present.
func Mean(values ...Value) Value {
	var sum float64
	n := 0
	for _, v := range values {
		if !v.ok {
			continue
		}
		sum += v.v
		n++
	}
	if n == 0 {
		return Missing()
	}
	return Present(sum / float64(n))
}

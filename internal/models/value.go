package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// Value is an optional float64. The zero Value is undefined.
// Undefined values marshal to JSON null.
type Value struct {
	V     float64
	Valid bool
}

// Some returns a defined Value. NaN and ±Inf are treated as undefined.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, Valid: true}
}

// None returns an undefined Value
func None() Value {
	return Value{}
}

// Get returns the float and whether it is defined
func (v Value) Get() (float64, bool) {
	return v.V, v.Valid
}

// Or returns the float, or fallback when undefined
func (v Value) Or(fallback float64) float64 {
	if !v.Valid {
		return fallback
	}
	return v.V
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Values builds defined Values from plain floats
func Values(fs ...float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Some(f)
	}
	return out
}

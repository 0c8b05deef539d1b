package meta

import "strings"

// Value is the raw, ordered list of values stored for one attribute name.
type Value struct {
	values []string
}

// NewValue wraps raw values. The slice is copied.
func NewValue(values ...string) Value {
	if len(values) == 0 {
		return Value{}
	}
	return Value{values: append([]string(nil), values...)}
}

// IsEmpty reports whether nothing is stored, or only empty strings.
func (v Value) IsEmpty() bool {
	for _, s := range v.values {
		if s != "" {
			return false
		}
	}
	return true
}

// Len returns the number of stored values.
func (v Value) Len() int {
	return len(v.values)
}

// Values returns a copy of every stored value.
func (v Value) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// First returns the first value, or "".
func (v Value) First() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// String returns the single value. Multiple values are comma joined.
func (v Value) String() string {
	return strings.Join(v.values, ",")
}

// Raw collapses the value the way templates expect it: nil when empty, a
// string for a single value, the full slice otherwise.
func (v Value) Raw() any {
	switch len(v.values) {
	case 0:
		return nil
	case 1:
		return v.values[0]
	default:
		return v.Values()
	}
}

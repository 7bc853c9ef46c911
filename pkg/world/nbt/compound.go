package nbt

// Compound is a structured NBT payload. Values must be one of the types the
// Writer knows how to encode: bool, int8, uint8, int16, int32, int64,
// float32, float64, string, []byte, []int32, []int64, []string, Compound
// or []Compound.
type Compound map[string]any

// Clone returns a deep copy of c. Slices and nested compounds are copied so
// that mutating the clone never affects the original.
func (c Compound) Clone() Compound {
	if c == nil {
		return nil
	}
	out := make(Compound, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Compound:
		return v.Clone()
	case []Compound:
		out := make([]Compound, len(v))
		for i, c := range v {
			out[i] = c.Clone()
		}
		return out
	case []byte:
		return append([]byte(nil), v...)
	case []int32:
		return append([]int32(nil), v...)
	case []int64:
		return append([]int64(nil), v...)
	case []string:
		return append([]string(nil), v...)
	}
	return v
}

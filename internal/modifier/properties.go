package modifier

// Properties is the string-to-scalar configuration map a VariableModifier
// reads during init, per spec §4.3. Values typically arrive decoded from
// YAML (ints as int, lists as []interface{}) via internal/config.
type Properties map[string]interface{}

// Integer returns the value at key coerced to int32, or def if absent or
// not coercible.
func (p Properties) Integer(key string, def int32) int32 {
	if v, ok := p[key]; ok {
		if n, ok := toInt64(v); ok {
			return int32(n)
		}
	}
	return def
}

// Long returns the value at key coerced to int64, or def if absent or not
// coercible.
func (p Properties) Long(key string, def int64) int64 {
	if v, ok := p[key]; ok {
		if n, ok := toInt64(v); ok {
			return n
		}
	}
	return def
}

// UnsignedLong returns the value at key coerced to uint64, or def if
// absent, negative, or not coercible.
func (p Properties) UnsignedLong(key string, def uint64) uint64 {
	if v, ok := p[key]; ok {
		if n, ok := toInt64(v); ok && n >= 0 {
			return uint64(n)
		}
	}
	return def
}

// String returns the value at key if it is a string, or def if absent or
// not a string.
func (p Properties) String(key string, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// StringList returns the value at key as a []string, accepting either a
// []interface{} of scalars (the shape yaml.v3 decodes a YAML sequence
// into) or a pre-built []string.
func (p Properties) StringList(key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return x
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > 1<<63-1 {
			return 0, false
		}
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	default:
		return 0, false
	}
}

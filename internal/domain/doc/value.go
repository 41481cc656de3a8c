// Package doc wraps decoded JSON in a loosely-structured value whose
// accessors never fail on a type mismatch. A lookup that runs into the wrong
// shape yields an absent Value instead, so a chain like
// v.Path("properties", "policyRule", "if") is always safe.
package doc

// Kind is the shape of a Value.
type Kind int

const (
	Absent Kind = iota
	Mapping
	Sequence
	Scalar
)

func (k Kind) String() string {
	switch k {
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	case Scalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Value is a tagged union over decoded JSON.
type Value struct {
	kind Kind
	m    map[string]any
	s    []any
	v    any
}

// From classifies a value produced by encoding/json. A JSON null is absent.
func From(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Value{}
	case map[string]any:
		return Value{kind: Mapping, m: t}
	case []any:
		return Value{kind: Sequence, s: t}
	case Value:
		return t
	default:
		return Value{kind: Scalar, v: t}
	}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsAbsent() bool   { return v.kind == Absent }
func (v Value) IsMapping() bool  { return v.kind == Mapping }
func (v Value) IsSequence() bool { return v.kind == Sequence }

// Has reports whether a mapping carries key, even when its value is null.
func (v Value) Has(key string) bool {
	if v.kind != Mapping {
		return false
	}
	_, ok := v.m[key]
	return ok
}

// Get returns the value under key, or an absent Value when v is not a
// mapping or the key is missing.
func (v Value) Get(key string) Value {
	if v.kind != Mapping {
		return Value{}
	}
	return From(v.m[key])
}

// Path follows keys through nested mappings.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur.kind == Absent {
			return cur
		}
	}
	return cur
}

// Len is the number of entries of a mapping or sequence, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Mapping:
		return len(v.m)
	case Sequence:
		return len(v.s)
	default:
		return 0
	}
}

// Str returns the string held by a scalar.
func (v Value) Str() (string, bool) {
	if v.kind != Scalar {
		return "", false
	}
	s, ok := v.v.(string)
	return s, ok
}

// Equals reports whether v is a string scalar equal to s.
func (v Value) Equals(s string) bool {
	got, ok := v.Str()
	return ok && got == s
}

// Raw returns the underlying decoded value (nil when absent).
func (v Value) Raw() any {
	switch v.kind {
	case Mapping:
		return v.m
	case Sequence:
		return v.s
	case Scalar:
		return v.v
	default:
		return nil
	}
}

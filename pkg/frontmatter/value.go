package frontmatter

import "strings"

// Map is an insertion-ordered string-keyed mapping. Front-matter blocks are
// author-facing text, so the serializer must emit keys in the order the
// author (or a previous merge) wrote them; a plain map[string]any cannot
// guarantee that.
//
// Values are restricted to the supported front-matter shapes: string, bool,
// int64, float64, nil, []any (sequences) and *Map (nested mappings).
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty ordered mapping.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended after all existing keys;
// setting an existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// String returns the value under key as a trimmed string, or "" when the key
// is missing or not a string.
func (m *Map) String(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Bool returns the bool stored under key, with ok reporting whether the key
// held a bool at all.
func (m *Map) Bool(key string) (value, ok bool) {
	v, present := m.Get(key)
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Map returns the nested mapping under key, or nil when the key is missing
// or holds a different shape.
func (m *Map) Map(key string) *Map {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	child, _ := v.(*Map)
	return child
}

// Clone returns a deep copy of the mapping. Sequences and nested mappings
// are copied recursively; scalars are value types already.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := NewMap()
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = cloneValue(item)
		}
		return items
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

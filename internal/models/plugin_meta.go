package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PluginMeta is the opaque per-entity scratch space owned by plugins.
// Values must be JSON-serialisable; it is persisted as a jsonb column.
type PluginMeta map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (m PluginMeta) Clone() PluginMeta {
	out := make(PluginMeta, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// Merge returns a copy of m with every key of other written over it.
func (m PluginMeta) Merge(other PluginMeta) PluginMeta {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}

	return out
}

// Equal reports whether both mappings serialise to the same JSON document.
func (m PluginMeta) Equal(other PluginMeta) bool {
	if len(m) != len(other) {
		return false
	}

	if len(m) == 0 {
		return true
	}

	a, errA := json.Marshal(m)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}

	return bytes.Equal(a, b)
}

// String returns the value stored under key if it is a string.
func (m PluginMeta) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Int64 returns the value stored under key as an int64. Numbers decoded from
// JSON arrive as float64 or json.Number, so all numeric forms are accepted.
func (m PluginMeta) Int64(key string) (int64, bool) {
	switch v := m[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// MarshalMeta encodes the mapping for storage, never producing SQL NULL.
func MarshalMeta(m PluginMeta) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal plugin_meta: %w", err)
	}

	return data, nil
}

// UnmarshalMeta decodes a stored jsonb value. Empty input yields an empty map.
func UnmarshalMeta(data []byte) (PluginMeta, error) {
	m := PluginMeta{}
	if len(data) == 0 {
		return m, nil
	}

	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal plugin_meta: %w", err)
	}

	return m, nil
}

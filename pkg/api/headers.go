package api

import (
	"iter"
	"strings"
)

// HeaderMap is an insertion-ordered header mapping with case-insensitive
// names. Names are stored lower-cased. Adding a value to an existing name
// joins the values with ", ".
//
// The zero value is ready to use.
type HeaderMap struct {
	keys   []string
	values map[string]string
}

// NewHeaderMap returns an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{values: make(map[string]string)}
}

// HeadersFrom collects name/value pairs into a new HeaderMap. Repeated names
// are joined.
func HeadersFrom(seq iter.Seq2[string, string]) *HeaderMap {
	h := NewHeaderMap()
	if seq == nil {
		return h
	}
	for name, value := range seq {
		h.Add(name, value)
	}
	return h
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set replaces any existing value for name.
func (h *HeaderMap) Set(name, value string) {
	key := canonicalName(name)
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Add appends value to name, joining with an existing value if present.
func (h *HeaderMap) Add(name, value string) {
	key := canonicalName(name)
	if existing, ok := h.values[key]; ok {
		h.values[key] = existing + ", " + value
		return
	}
	h.Set(key, value)
}

// Get returns the value for name and whether it was present.
func (h *HeaderMap) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[canonicalName(name)]
	return v, ok
}

// Value returns the value for name, or "" when absent.
func (h *HeaderMap) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Has reports whether name is present.
func (h *HeaderMap) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Delete removes name.
func (h *HeaderMap) Delete(name string) {
	if h == nil {
		return
	}
	key := canonicalName(name)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct header names.
func (h *HeaderMap) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Keys returns the lower-cased header names in insertion order.
func (h *HeaderMap) Keys() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// All iterates over the headers in insertion order.
func (h *HeaderMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, k := range h.keys {
			if !yield(k, h.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (h *HeaderMap) Clone() *HeaderMap {
	c := NewHeaderMap()
	for k, v := range h.All() {
		c.Set(k, v)
	}
	return c
}

package core

import (
	"strings"
)

// Record is an ordered field -> value mapping for a single CSV row.
//
// Keys keep their insertion order. Setting an existing key replaces the
// value but keeps the original position, matching how a header with a
// duplicated column name resolves.
type Record struct {
	keys   []string
	values map[string]string

	// Overflow holds values beyond the width of the column header.
	Overflow []string
}

// NewRecord creates an empty record with room for n fields.
func NewRecord(n int) Record {
	return Record{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
}

// RecordOf builds a record from alternating key, value pairs.
// A trailing key without a value is stored with an empty value.
func RecordOf(kv ...string) Record {
	r := NewRecord(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		r.Set(kv[i], v)
	}
	return r
}

// Set stores value under key.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether it exists.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the field names in order. The slice must not be modified.
func (r Record) Keys() []string {
	return r.keys
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// Values returns the values in key order.
func (r Record) Values() []string {
	out := make([]string, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// TrimKeys returns a copy with surrounding whitespace removed from every key.
// Values are left untouched and key order is preserved.
func (r Record) TrimKeys() Record {
	out := NewRecord(len(r.keys))
	for _, k := range r.keys {
		out.Set(strings.TrimSpace(k), r.values[k])
	}
	if len(r.Overflow) > 0 {
		out.Overflow = append([]string(nil), r.Overflow...)
	}
	return out
}

// String renders the record for diagnostics, e.g. {A: 1, B: 2}.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(r.values[k])
	}
	if len(r.Overflow) > 0 {
		if len(r.keys) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...: [")
		b.WriteString(strings.Join(r.Overflow, ", "))
		b.WriteByte(']')
	}
	b.WriteByte('}')
	return b.String()
}

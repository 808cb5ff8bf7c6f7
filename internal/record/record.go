// Package record holds extracted field values in extraction order.
package record

import (
	"bytes"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
)

// Field is one key/value pair.
type Field struct {
	Key   string
	Value string
}

// Record is an ordered field→value mapping with unique keys.
type Record struct {
	fields []Field
}

// New builds a record from alternating key, value arguments.
func New(kv ...string) Record {
	var r Record
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the pairs in insertion order.
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

func (r Record) Len() int { return len(r.fields) }

// Map returns the record as an unordered map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as an object with keys in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := sonic.ConfigStd.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := sonic.ConfigStd.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a mapping with keys in insertion order.
func (r Record) MarshalYAML() (interface{}, error) {
	ms := make(yaml.MapSlice, len(r.fields))
	for i, f := range r.fields {
		ms[i] = yaml.MapItem{Key: f.Key, Value: f.Value}
	}
	return ms, nil
}

// UnionKeys returns the keys of all records in first-seen order.
func UnionKeys(records []Record) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, f := range r.fields {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	return keys
}

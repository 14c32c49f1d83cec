package model

import (
	"bytes"
	"encoding/json"
)

// RawLine is a single line read from an input, with the input it came from.
type RawLine struct {
	Text   string
	Source string // file path, or "-" for stdin
}

// Field is one named capture.
type Field struct {
	Name  string
	Value string
}

// Record is the ordered set of named captures produced by one successful match.
// Names are unique; order follows the pattern text.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord returns an empty record with room for n fields.
func NewRecord(n int) Record {
	return Record{
		fields: make([]Field, 0, n),
		index:  make(map[string]int, n),
	}
}

// Set appends a field, or replaces the value in place if the name is already present.
func (r *Record) Set(name, value string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value captured for name.
func (r Record) Get(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON writes the record as a JSON object, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString encodes s without HTML escaping so captured values keep their bytes.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

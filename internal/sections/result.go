package sections

import (
	"bytes"
	"encoding/json"
)

// ordered is a string-keyed map that remembers first-insertion order.
// Setting an existing key replaces the value in place.
type ordered[V any] struct {
	keys  []string
	items map[string]V
}

func (m *ordered[V]) set(key string, v V) {
	if m.items == nil {
		m.items = make(map[string]V)
	}
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

func (m *ordered[V]) get(key string) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *ordered[V]) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record is one table row keyed by column header, in column order.
// Set needs a pointer receiver; the read methods and MarshalJSON use value
// receivers because records are held by value in a Table and must marshal
// from there.
type Record struct {
	fields ordered[string]
}

func (r *Record) Set(header, cell string)          { r.fields.set(header, cell) }
func (r Record) Get(header string) (string, bool) { return r.fields.get(header) }
func (r Record) Keys() []string                   { return append([]string(nil), r.fields.keys...) }
func (r Record) Len() int                         { return len(r.fields.keys) }

func (r Record) MarshalJSON() ([]byte, error) { return r.fields.marshal() }

// Table is the ordered sequence of records materialized from one table.
type Table []Record

// Section maps accepted sub-level heading text to its table. Sections are
// only handled through *Section, so every method has a pointer receiver.
type Section struct {
	tables ordered[Table]
}

func (s *Section) Set(heading string, t Table)      { s.tables.set(heading, t) }
func (s *Section) Get(heading string) (Table, bool) { return s.tables.get(heading) }
func (s *Section) Keys() []string                   { return append([]string(nil), s.tables.keys...) }
func (s *Section) Len() int                         { return len(s.tables.keys) }

func (s *Section) MarshalJSON() ([]byte, error) { return s.tables.marshal() }

// Result maps accepted top-level heading text to its section. It serializes
// to {"top": {"sub": [{"header": "cell"}]}} with every level in document
// order. As with Record, only Set takes a pointer: results are returned and
// stored by value and must marshal from a value.
type Result struct {
	sections ordered[*Section]
}

func (r *Result) Set(heading string, s *Section)      { r.sections.set(heading, s) }
func (r Result) Get(heading string) (*Section, bool) { return r.sections.get(heading) }
func (r Result) Keys() []string                      { return append([]string(nil), r.sections.keys...) }
func (r Result) Len() int                            { return len(r.sections.keys) }

func (r Result) MarshalJSON() ([]byte, error) { return r.sections.marshal() }

// Counts summarizes a result.
type Counts struct {
	Sections    int `json:"sections"`
	Subsections int `json:"subsections"`
	Rows        int `json:"rows"`
}

// Counts returns how many sections, subsections and rows r holds.
func (r Result) Counts() Counts {
	c := Counts{Sections: r.Len()}
	for _, k := range r.sections.keys {
		s := r.sections.items[k]
		c.Subsections += s.Len()
		for _, tk := range s.tables.keys {
			c.Rows += len(s.tables.items[tk])
		}
	}
	return c
}

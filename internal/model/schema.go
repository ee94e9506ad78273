package model

import (
	"bytes"
	"encoding/json"
)

// Schema maps column name to type and remembers first-seen column order
type Schema struct {
	order []string
	types map[string]ColumnType
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{types: make(map[string]ColumnType)}
}

// Set assigns a column type, appending the column if it is new
func (s *Schema) Set(col string, t ColumnType) {
	if _, ok := s.types[col]; !ok {
		s.order = append(s.order, col)
	}
	s.types[col] = t
}

// Type returns the column type and whether the column is known
func (s *Schema) Type(col string) (ColumnType, bool) {
	t, ok := s.types[col]
	return t, ok
}

// Columns returns column names in first-seen order
func (s *Schema) Columns() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of columns
func (s *Schema) Len() int {
	return len(s.order)
}

// MarshalJSON writes the schema as an object in column order
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(string(s.types[col]))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the flat output of the schema normalizer
type Table struct {
	Schema *Schema  `json:"schema"`
	Rows   []Record `json:"data"`
}

// Package model holds the data types shared by the report loader, the
// transforms and the HTTP API.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ColumnType is the inferred type tag of a table column
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeDatetime ColumnType = "datetime"
)

// ValueKind tells which field of a Value is meaningful
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
)

// Value is a nullable scalar cell. The zero Value is null.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Null returns the null value
func Null() Value { return Value{} }

// Number wraps a numeric value
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text wraps a text value
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// IsNull reports whether the value is null
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsIntegral reports whether v is a finite number without a fractional part
func (v Value) IsIntegral() bool {
	return v.Kind == KindNumber && !math.IsInf(v.Num, 0) && v.Num == math.Trunc(v.Num)
}

// String renders the value the way it appears in report text:
// integers without exponent, null as "null".
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Booleans decode as 0/1,
// nested objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't':
		*v = Number(1)
	case 'f':
		*v = Number(0)
	case '{', '[':
		return fmt.Errorf("unsupported cell value %s", truncate(data, 32))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid number %s: %w", truncate(data, 32), err)
		}
		*v = Number(f)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Record is one telemetry record: column name to cell
type Record map[string]Value

// RecordList is the record sequence of one entry-kind. Some analyzer
// versions write a single object instead of an array; both decode here.
type RecordList []Record

// UnmarshalJSON implements json.Unmarshaler
func (l *RecordList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*l = RecordList{r}
		return nil
	}
	var rs []Record
	if err := json.Unmarshal(data, &rs); err != nil {
		return err
	}
	*l = rs
	return nil
}

// UserData maps entry-kind name to its records
type UserData map[string]RecordList

// PeriodData is the content of an archive's raw.json
type PeriodData struct {
	Started int64               `json:"started"`
	Updated int64               `json:"updated"`
	Data    map[string]UserData `json:"data"`
}

// PeriodMeta is the per-period metadata listed by /api/periods
type PeriodMeta struct {
	Started int64 `json:"started"`
	Updated int64 `json:"updated"`
}

// Meta returns the period's metadata
func (p PeriodData) Meta() PeriodMeta {
	return PeriodMeta{Started: p.Started, Updated: p.Updated}
}

// EntryKind classifies an entry-kind name
type EntryKind int

const (
	EntryOther EntryKind = iota
	EntryIdentity
	EntryDiagnostic
)

// Entry-kind names with special handling
const (
	IdentityEntry   = "JobInfo"
	DiagnosticEntry = "Problems"
)

// ClassifyEntry maps an entry-kind name to its kind
func ClassifyEntry(name string) EntryKind {
	switch name {
	case IdentityEntry:
		return EntryIdentity
	case DiagnosticEntry:
		return EntryDiagnostic
	default:
		return EntryOther
	}
}

func (k EntryKind) String() string {
	switch k {
	case EntryIdentity:
		return "identity"
	case EntryDiagnostic:
		return "diagnostic"
	default:
		return "other"
	}
}

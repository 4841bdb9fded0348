package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is one table record keyed by column name.
// Values keep their decoded JSON type (string, json.Number, bool, nil, or nested values).
type Row map[string]interface{}

// Table is the in-memory tabular snapshot of the latest query result
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table with the given columns.
// Duplicate column names are collapsed, keeping the first occurrence.
func NewTable(columns ...string) *Table {
	seen := make(map[string]bool, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return &Table{
		Columns: cols,
		Rows:    []Row{},
	}
}

// AppendRow adds a record, normalising its key set to the table columns.
// Missing keys become nil and unknown keys are dropped.
func (t *Table) AppendRow(values map[string]interface{}) {
	row := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		row[c] = values[c]
	}
	t.Rows = append(t.Rows, row)
}

// IsEmpty reports whether the table has no rows
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table columns
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the column list and rows.
// Cell values are copied by reference; they are treated as immutable.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Normalize enforces the row key set invariant on a table decoded from outside,
// e.g. a snapshot posted by a client.
func (t *Table) Normalize() {
	if t == nil {
		return
	}
	normalized := NewTable(t.Columns...)
	for _, r := range t.Rows {
		normalized.AppendRow(r)
	}
	*t = *normalized
}

// CellString renders a cell value the way exports print it.
// nil becomes the empty string and nested values become compact JSON.
func CellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int, int64, int32:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

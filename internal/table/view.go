package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// Operators accepted in filter expressions
const (
	OpContains = "contains"
	OpEq       = "="
	OpNe       = "!="
	OpGt       = ">"
	OpGe       = ">="
	OpLt       = "<"
	OpLe       = "<="
)

// SortSpec orders a view by one column
type SortSpec struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// Filter keeps rows whose Column matches Value under Op
type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

// Query combines filters (all must match) with an optional sort
type Query struct {
	Filters []Filter  `json:"filters,omitempty"`
	Sort    *SortSpec `json:"sort,omitempty"`
}

// ParseFilter reads an expression such as ">=10", "!=Cup" or "premier".
// A bare value means a case-insensitive contains match.
func ParseFilter(column, expr string) Filter {
	expr = strings.TrimSpace(expr)
	for _, op := range []string{OpGe, OpLe, OpNe, OpGt, OpLt, OpEq} {
		if strings.HasPrefix(expr, op) {
			return Filter{Column: column, Op: op, Value: strings.TrimSpace(expr[len(op):])}
		}
	}
	return Filter{Column: column, Op: OpContains, Value: expr}
}

// Apply returns a new table with the query applied. The input is not modified.
func Apply(t *models.Table, q Query) (*models.Table, error) {
	out, err := FilterRows(t, q.Filters...)
	if err != nil {
		return nil, err
	}
	if q.Sort != nil {
		return Sort(out, *q.Sort)
	}
	return out, nil
}

// FilterRows returns a copy containing only the rows matching every filter
func FilterRows(t *models.Table, filters ...Filter) (*models.Table, error) {
	if t == nil {
		return models.NewTable(), nil
	}
	for _, f := range filters {
		if !t.HasColumn(f.Column) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, f.Column)
		}
		if !validOp(f.Op) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, f.Op)
		}
	}

	out := models.NewTable(t.Columns...)
	for _, r := range t.Clone().Rows {
		if matchesAll(r, filters) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

// Sort returns a copy ordered by one column. Ties keep their original order.
// Numeric cells compare numerically, nulls sort first when ascending.
func Sort(t *models.Table, spec SortSpec) (*models.Table, error) {
	if t == nil {
		return models.NewTable(), nil
	}
	if !t.HasColumn(spec.Column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, spec.Column)
	}

	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		c := compareCells(out.Rows[i][spec.Column], out.Rows[j][spec.Column])
		if spec.Descending {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func validOp(op string) bool {
	switch op {
	case OpContains, OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

func matchesAll(r models.Row, filters []Filter) bool {
	for _, f := range filters {
		if !matches(r[f.Column], f) {
			return false
		}
	}
	return true
}

func matches(cell interface{}, f Filter) bool {
	text := models.CellString(cell)

	if f.Op == OpContains {
		return strings.Contains(strings.ToLower(text), strings.ToLower(f.Value))
	}

	c := compareText(text, f.Value)
	switch f.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	}
	return false
}

// compareCells orders two cells; nil is smaller than anything else
func compareCells(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareText(models.CellString(a), models.CellString(b))
}

// compareText compares numerically when both sides are numbers, otherwise as strings
func compareText(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

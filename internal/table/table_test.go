package table_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/table"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leagues() *models.Table {
	t := models.NewTable("id", "name", "type", "logo")
	t.AppendRow(map[string]interface{}{"id": json.Number("39"), "name": "Premier League", "type": "League", "logo": "pl.png"})
	t.AppendRow(map[string]interface{}{"id": json.Number("45"), "name": "FA Cup", "type": "Cup", "logo": "fa.png"})
	t.AppendRow(map[string]interface{}{"id": json.Number("40"), "name": "Championship", "type": "League", "logo": nil})
	t.AppendRow(map[string]interface{}{"id": json.Number("9"), "name": "League Cup", "type": "Cup", "logo": "lc.png"})
	return t
}

func names(t *models.Table) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = models.CellString(r["name"])
	}
	return out
}

func TestEdit(t *testing.T) {
	tbl := leagues()

	require.NoError(t, table.Edit(tbl, 1, "name", "The FA Cup"))
	assert.Equal(t, "The FA Cup", tbl.Rows[1]["name"])
	assert.Equal(t, []string{"id", "name", "type", "logo"}, tbl.Columns)
	assert.Len(t, tbl.Rows[1], 4)

	err := table.Edit(tbl, 4, "name", "x")
	assert.True(t, errors.Is(err, table.ErrRowOutOfRange))

	err = table.Edit(tbl, -1, "name", "x")
	assert.True(t, errors.Is(err, table.ErrRowOutOfRange))

	err = table.Edit(tbl, 0, "founded", "1888")
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
	assert.NotContains(t, tbl.Rows[0], "founded")
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		spec table.SortSpec
		want []string
	}{
		{
			name: "numeric ascending",
			spec: table.SortSpec{Column: "id"},
			want: []string{"League Cup", "Premier League", "Championship", "FA Cup"},
		},
		{
			name: "numeric descending",
			spec: table.SortSpec{Column: "id", Descending: true},
			want: []string{"FA Cup", "Championship", "Premier League", "League Cup"},
		},
		{
			name: "string ascending is stable",
			spec: table.SortSpec{Column: "type"},
			want: []string{"FA Cup", "League Cup", "Premier League", "Championship"},
		},
		{
			name: "nulls first",
			spec: table.SortSpec{Column: "logo"},
			want: []string{"Championship", "FA Cup", "League Cup", "Premier League"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := leagues()
			sorted, err := table.Sort(src, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(sorted))
			// source untouched
			assert.Equal(t, []string{"Premier League", "FA Cup", "Championship", "League Cup"}, names(src))
		})
	}

	_, err := table.Sort(leagues(), table.SortSpec{Column: "missing"})
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))
}

func TestParseFilter(t *testing.T) {
	tests := map[string]table.Filter{
		">=40":     {Column: "id", Op: ">=", Value: "40"},
		"<= 40":    {Column: "id", Op: "<=", Value: "40"},
		"!=Cup":    {Column: "id", Op: "!=", Value: "Cup"},
		">9":       {Column: "id", Op: ">", Value: "9"},
		"<9":       {Column: "id", Op: "<", Value: "9"},
		"=45":      {Column: "id", Op: "=", Value: "45"},
		" premier": {Column: "id", Op: "contains", Value: "premier"},
	}

	for expr, want := range tests {
		assert.Equal(t, want, table.ParseFilter("id", expr), expr)
	}
}

func TestFilterRows(t *testing.T) {
	tests := []struct {
		name    string
		filters []table.Filter
		want    []string
	}{
		{"no filters", nil, []string{"Premier League", "FA Cup", "Championship", "League Cup"}},
		{"contains case-insensitive", []table.Filter{table.ParseFilter("name", "LEAGUE")}, []string{"Premier League", "League Cup"}},
		{"equals", []table.Filter{table.ParseFilter("type", "=Cup")}, []string{"FA Cup", "League Cup"}},
		{"not equals", []table.Filter{table.ParseFilter("type", "!=Cup")}, []string{"Premier League", "Championship"}},
		{"numeric greater", []table.Filter{table.ParseFilter("id", ">39")}, []string{"FA Cup", "Championship"}},
		{"numeric less or equal", []table.Filter{table.ParseFilter("id", "<=39")}, []string{"Premier League", "League Cup"}},
		{"combined", []table.Filter{table.ParseFilter("type", "=League"), table.ParseFilter("id", ">39")}, []string{"Championship"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := leagues()
			out, err := table.FilterRows(src, tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(out))
			assert.Equal(t, src.Columns, out.Columns)
			assert.Len(t, src.Rows, 4)
		})
	}

	_, err := table.FilterRows(leagues(), table.Filter{Column: "missing", Op: table.OpEq})
	assert.True(t, errors.Is(err, table.ErrUnknownColumn))

	_, err = table.FilterRows(leagues(), table.Filter{Column: "id", Op: "~"})
	assert.True(t, errors.Is(err, table.ErrUnknownOperator))
}

func TestApply_FilterThenSort(t *testing.T) {
	out, err := table.Apply(leagues(), table.Query{
		Filters: []table.Filter{table.ParseFilter("type", "=Cup")},
		Sort:    &table.SortSpec{Column: "id"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"League Cup", "FA Cup"}, names(out))
}

func TestViews_DoNotShareRowsWithSource(t *testing.T) {
	src := leagues()
	out, err := table.Sort(src, table.SortSpec{Column: "id"})
	require.NoError(t, err)

	require.NoError(t, table.Edit(out, 0, "name", "changed"))
	assert.NotContains(t, names(src), "changed")
}

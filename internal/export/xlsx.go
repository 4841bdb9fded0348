package export

import (
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an XLSX export
const SheetName = "Sheet1"

// ToXLSX writes one worksheet with a header row and one row per record.
// Numeric cells are stored as numbers, everything else as text.
func ToXLSX(t *models.Table) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTable
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for r, row := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			values[i] = xlsxValue(row[col])
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", r, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxValue maps a cell to the type excelize should store
func xlsxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case string, bool, float64, int, int64:
		return val
	default:
		return models.CellString(val)
	}
}

package export

import (
	"bytes"
	"encoding/csv"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// ToCSV writes a header row followed by one line per record
func ToCSV(t *models.Table) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTable
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = models.CellString(row[col])
		}
		// a lone empty field would be written as a blank line, which readers skip
		if len(record) == 1 && record[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

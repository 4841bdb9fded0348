// Package table holds the table model operations: in-place cell edits and
// the read-side sort and filter views.
package table

import (
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

var (
	// ErrRowOutOfRange is returned for a row index outside the table
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrUnknownColumn is returned for a column the table does not have
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownOperator is returned for a filter operator outside the supported set
	ErrUnknownOperator = errors.New("unknown filter operator")
)

// Edit overwrites one cell in place. The column set never changes.
func Edit(t *models.Table, row int, column string, value interface{}) error {
	if err := CheckRow(t, row); err != nil {
		return err
	}
	if !t.HasColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	t.Rows[row][column] = value
	return nil
}

// CheckRow validates a row index against the table
func CheckRow(t *models.Table, row int) error {
	if row < 0 || row >= t.Len() {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, t.Len())
	}
	return nil
}

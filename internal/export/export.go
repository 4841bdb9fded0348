// Package export renders a table snapshot into downloadable files.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// Format is an export file type
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// File names are fixed and independent of the selection
const (
	FileNameCSV  = "export.csv"
	FileNameXLSX = "export.xlsx"
	FileNamePDF  = "export.pdf"
)

var (
	// ErrEmptyTable is returned when there are no rows to export
	ErrEmptyTable = errors.New("empty table")
	// ErrUnknownFormat is returned for a format outside csv, xlsx, pdf
	ErrUnknownFormat = errors.New("unknown export format")
)

// Artifact is a rendered export ready for download
type Artifact struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type renderer struct {
	fileName    string
	contentType string
	render      func(*models.Table) ([]byte, error)
}

var renderers = map[Format]renderer{
	FormatCSV:  {FileNameCSV, "text/csv", ToCSV},
	FormatXLSX: {FileNameXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ToXLSX},
	FormatPDF:  {FileNamePDF, "application/pdf", ToPDF},
}

// Formats returns the supported formats in button order
func Formats() []Format {
	return []Format{FormatXLSX, FormatPDF, FormatCSV}
}

// ParseFormat validates a format string
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := renderers[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Render serialises the table into the requested format
func Render(format Format, t *models.Table) (*Artifact, error) {
	r, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if t.IsEmpty() {
		metrics.Observer.IncExport(string(format), "empty")
		return nil, ErrEmptyTable
	}

	data, err := r.render(t)
	if err != nil {
		metrics.Observer.IncExport(string(format), "error")
		return nil, fmt.Errorf("rendering %s: %w", format, err)
	}

	metrics.Observer.IncExport(string(format), "ok")
	return &Artifact{
		FileName:    r.fileName,
		ContentType: r.contentType,
		Data:        data,
	}, nil
}

package export

import (
	"bytes"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-pdf/fpdf"
)

// RGB is a fill or text colour
type RGB struct{ R, G, B int }

// Grid styling
var (
	HeaderFill = RGB{0, 51, 102}
	HeaderText = RGB{255, 255, 255}
	StripeFill = RGB{230, 230, 230}
	BodyText   = RGB{0, 0, 0}
)

const (
	pdfOrientation = "L"
	pdfUnit        = "mm"
	pdfSize        = "A3"
	pdfFont        = "Arial"
	pdfFontSize    = 12
)

// Layout is the geometry of the rendered grid
type Layout struct {
	ColumnWidth float64
	RowHeight   float64
	Columns     int
}

// NewLayout splits the printable width evenly between the columns
func NewLayout(pageWidth, margin, rowHeight float64, columns int) Layout {
	if columns <= 0 {
		return Layout{RowHeight: rowHeight}
	}
	return Layout{
		ColumnWidth: (pageWidth - 2*margin) / float64(columns),
		RowHeight:   rowHeight,
		Columns:     columns,
	}
}

// canvas is the subset of *fpdf.Fpdf the grid is drawn with
type canvas interface {
	SetFillColor(r, g, b int)
	SetTextColor(r, g, b int)
	CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string)
	Ln(h float64)
}

// ToPDF draws the table as a bordered grid on a landscape A3 page
func ToPDF(t *models.Table) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTable
	}

	pdf, layout := newPage(len(t.Columns))
	drawGrid(pdf, layout, t, pdf.UnicodeTranslatorFromDescriptor(""))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newPage opens a landscape A3 document and sizes the grid from its page,
// margins and font
func newPage(columns int) (*fpdf.Fpdf, Layout) {
	pdf := fpdf.New(pdfOrientation, pdfUnit, pdfSize, "")
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	pageWidth, _ := pdf.GetPageSize()
	left, _, _, _ := pdf.GetMargins()
	_, lineHeight := pdf.GetFontSize()

	return pdf, NewLayout(pageWidth, left, lineHeight, columns)
}

// drawGrid writes the header row and one row per record.
// Odd-indexed data rows are filled; even-indexed rows are not.
func drawGrid(c canvas, layout Layout, t *models.Table, translate func(string) string) {
	c.SetFillColor(HeaderFill.R, HeaderFill.G, HeaderFill.B)
	c.SetTextColor(HeaderText.R, HeaderText.G, HeaderText.B)
	for _, col := range t.Columns {
		c.CellFormat(layout.ColumnWidth, layout.RowHeight, translate(col), "1", 0, "", true, 0, "")
	}
	c.Ln(layout.RowHeight)

	c.SetFillColor(StripeFill.R, StripeFill.G, StripeFill.B)
	c.SetTextColor(BodyText.R, BodyText.G, BodyText.B)
	for i, row := range t.Rows {
		fill := i%2 == 1
		for _, col := range t.Columns {
			c.CellFormat(layout.ColumnWidth, layout.RowHeight, translate(models.CellString(row[col])), "1", 0, "", fill, 0, "")
		}
		c.Ln(layout.RowHeight)
	}
}

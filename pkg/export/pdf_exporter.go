package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GridDocument is a timetable laid out as hour rows by day columns.
type GridDocument struct {
	Title    string
	Subtitle string
	// Accent is a #rrggbb colour for the header row; empty falls back to grey.
	Accent  string
	Columns []string
	Rows    []GridRow
}

// GridRow is one hour of the grid. Cells align with GridDocument.Columns.
type GridRow struct {
	Label string
	Cells []string
}

// PDFExporter renders timetable grids on landscape A4.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the grid; filled cells are shaded with a light tint of the accent.
func (e *PDFExporter) Render(doc GridDocument) ([]byte, error) {
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	r, g, b := parseHex(doc.Accent, 200, 200, 200)
	labelWidth := 18.0
	colWidth := (277.0 - labelWidth) / float64(len(doc.Columns))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(r, g, b)
	pdf.CellFormat(labelWidth, 8, "", "1", 0, "C", true, 0, "")
	for _, col := range doc.Columns {
		pdf.CellFormat(colWidth, 8, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	tr2, tg, tb := tint(r), tint(g), tint(b)
	for _, row := range doc.Rows {
		pdf.CellFormat(labelWidth, 10, tr(row.Label), "1", 0, "C", false, 0, "")
		for i := range doc.Columns {
			value := ""
			if i < len(row.Cells) {
				value = row.Cells[i]
			}
			pdf.SetFillColor(tr2, tg, tb)
			pdf.CellFormat(colWidth, 10, tr(truncate(value, 40)), "1", 0, "C", value != "", 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func parseHex(hex string, dr, dg, db int) (int, int, int) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return dr, dg, db
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return dr, dg, db
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func tint(c int) int {
	return c + (255-c)*3/4
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

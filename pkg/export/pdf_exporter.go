package export

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthPortrait  = 190.0
	pageWidthLandscape = 277.0
	minColumnWeight    = 6
	maxColumnWeight    = 40
)

// PDFExporter renders datasets into a tabular PDF. Wide datasets are laid out
// in landscape and column widths follow the longest value in each column.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, usable := "P", pageWidthPortrait
	if len(data.Headers) > 4 {
		orientation, usable = "L", pageWidthLandscape
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 15, 10)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Generated %s - page %d", e.now().UTC().Format(time.RFC3339), pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	widths := columnWidths(data, usable)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 7, tr(truncate(row[header], widths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(data Dataset, usable float64) []float64 {
	weights := make([]int, len(data.Headers))
	total := 0
	for i, header := range data.Headers {
		w := utf8.RuneCountInString(header)
		for _, value := range data.Column(header) {
			if n := utf8.RuneCountInString(value); n > w {
				w = n
			}
		}
		if w < minColumnWeight {
			w = minColumnWeight
		}
		if w > maxColumnWeight {
			w = maxColumnWeight
		}
		weights[i] = w
		total += w
	}
	widths := make([]float64, len(weights))
	for i, w := range weights {
		widths[i] = usable * float64(w) / float64(total)
	}
	return widths
}

// truncate clips values that would overflow a cell; roughly 1.8mm per glyph at 8pt.
func truncate(value string, width float64) string {
	limit := int(width / 1.8)
	if limit < 4 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-3]) + "..."
}

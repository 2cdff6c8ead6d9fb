package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// SummaryItem is one labelled figure in the report header block.
type SummaryItem struct {
	Label string
	Value string
}

// Report describes a titled tabular PDF with a summary block.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Summary     []SummaryItem
	FilterLine  string
	Table       Dataset
}

var (
	headerFill = [3]int{15, 23, 42}
	stripeFill = [3]int{248, 250, 252}
	summaryInk = [][3]int{{33, 91, 54}, {127, 29, 29}, {15, 23, 42}}
)

// PDFExporter renders reports into an A4 PDF.
type PDFExporter struct {
	location *time.Location
}

// NewPDFExporter constructs a PDF exporter; timestamps are printed in loc
// (UTC when nil).
func NewPDFExporter(loc *time.Location) *PDFExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFExporter{location: loc}
}

// Render creates the report document.
func (e *PDFExporter) Render(report Report) ([]byte, error) {
	if len(report.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 30

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(33, 33, 33)
	pdf.CellFormat(0, 10, tr(report.Title), "", 1, "L", false, 0, "")

	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, tr("Gerado em: "+generated.In(e.location).Format("02/01/2006 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(report.Summary) > 0 {
		top := pdf.GetY()
		pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
		pdf.Rect(15, top, contentWidth, 25, "F")
		pdf.SetXY(20, top+3)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(71, 85, 105)
		pdf.CellFormat(0, 6, tr("Resumo Financeiro"), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		slot := (contentWidth - 10) / float64(len(report.Summary))
		pdf.SetXY(20, top+13)
		for i, item := range report.Summary {
			ink := summaryInk[i%len(summaryInk)]
			pdf.SetTextColor(ink[0], ink[1], ink[2])
			pdf.CellFormat(slot, 6, tr(item.Label+": "+item.Value), "", 0, "L", false, 0, "")
		}
		pdf.SetXY(15, top+27)
	}

	if report.FilterLine != "" {
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 5, tr(report.FilterLine), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	colWidth := contentWidth / float64(len(report.Table.Headers))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(255, 255, 255)
	for _, header := range report.Table.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(33, 33, 33)
	pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
	for i, row := range report.Table.Rows {
		for _, header := range report.Table.Headers {
			pdf.CellFormat(colWidth, 7, tr(truncate(row[header], colWidth)), "", 0, "L", i%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate keeps long descriptions inside their column at 8pt.
func truncate(value string, width float64) string {
	limit := int(width * 5 / 8)
	runes := []rune(value)
	if limit < 4 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

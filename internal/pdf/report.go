package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"taskflow/internal/services"
)

// ReportGenerator renders task reports as A4 PDF documents.
type ReportGenerator struct {
	FontPath string // TTF with the glyphs the data needs; core Helvetica when empty or missing
	LogoPath string // optional PNG/JPG shown in the header
	fontName string
}

func NewReportGenerator(fontPath, logoPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath, LogoPath: logoPath, fontName: "DejaVu"}
}

var columnWeights = map[string]float64{
	"id":                 1,
	"title":              3,
	"status":             1.9,
	"priority":           1.2,
	"assigned_to":        1.6,
	"deadline":           1.7,
	"folder":             2.4,
	"milestone":          2.4,
	"milestone_status":   1.7,
	"milestone_deadline": 1.7,
}

const (
	margin    = 10.0
	rowHeight = 6.0
)

// Write renders rep to w. Wide reports switch to landscape.
func (g *ReportGenerator) Write(w io.Writer, rep *services.Report) error {
	orientation := "P"
	if len(rep.Columns) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(rep.Title, true)
	pdf.SetMargins(margin, 12, margin)
	pdf.SetAutoPageBreak(true, 15)
	font, tr := g.setupFont(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	g.header(pdf, font, tr, rep)

	pageW, _ := pdf.GetPageSize()
	widths := columnWidths(rep.Columns, pageW-2*margin)
	drawHeaderRow := func() {
		pdf.SetFont(font, "B", 8)
		pdf.SetFillColor(13, 110, 253)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range rep.Headers {
			pdf.CellFormat(widths[i], rowHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	drawHeaderRow()

	_, pageH := pdf.GetPageSize()
	pdf.SetFont(font, "", 8)
	for _, row := range rep.Rows {
		if pdf.GetY()+rowHeight > pageH-15 {
			pdf.AddPage()
			drawHeaderRow()
			pdf.SetFont(font, "", 8)
		}
		fill := row.Kind == services.RowMilestone
		if fill {
			pdf.SetFillColor(240, 240, 240)
		}
		for i, cell := range row.Cells {
			pdf.CellFormat(widths[i], rowHeight, fit(pdf, tr(cell), widths[i]-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rep.Rows) == 0 {
		pdf.CellFormat(0, rowHeight, "No tasks match the filters.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

func (g *ReportGenerator) header(pdf *gofpdf.Fpdf, font string, tr func(string) string, rep *services.Report) {
	x := margin
	if g.LogoPath != "" {
		if _, err := os.Stat(g.LogoPath); err == nil {
			pdf.ImageOptions(g.LogoPath, margin, 10, 14, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			x += 17
		}
	}
	pdf.SetXY(x, 11)
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 7, tr(rep.Title), "", 1, "L", false, 0, "")
	pdf.SetX(x)
	pdf.SetFont(font, "", 9)
	pdf.CellFormat(0, 5, "Generated on: "+rep.GeneratedAt.Format("02-Jan-2006 15:04"), "", 1, "L", false, 0, "")
	pdf.SetX(x)
	pdf.CellFormat(0, 5, tr("Filters: "+rep.Filters), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

// setupFont registers the UTF-8 font when available. The returned translator
// is the identity for UTF-8 fonts and maps to cp1252 for the core font.
func (g *ReportGenerator) setupFont(pdf *gofpdf.Fpdf) (string, func(string) string) {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font(g.fontName, "", g.FontPath)
			pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
			return g.fontName, func(s string) string { return s }
		}
	}
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func columnWidths(columns []string, total float64) []float64 {
	sum := 0.0
	for _, c := range columns {
		sum += weight(c)
	}
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = total * weight(c) / sum
	}
	return out
}

func weight(c string) float64 {
	if w, ok := columnWeights[c]; ok {
		return w
	}
	return 1.5
}

// fit shortens s with an ellipsis until it fits in width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

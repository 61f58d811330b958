package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// PDFSettings are cosmetic options for the paginated export.
type PDFSettings struct {
	Orientation string // "Landscape" or "Portrait"
	Title       string
	TitleSize   float64 // points
	TitleAlign  string  // "Left", "Center" or "Right"
	HeaderBG    string  // hex colour, e.g. "#808080"
	HeaderText  string
	AltRow      string // background of every other body row
}

func DefaultPDFSettings() PDFSettings {
	return PDFSettings{
		Orientation: "Landscape",
		Title:       "Multiple Choice Questions",
		TitleSize:   16,
		TitleAlign:  "Center",
		HeaderBG:    "#808080",
		HeaderText:  "#FFFFFF",
		AltRow:      "#F0F0F0",
	}
}

type rgb struct{ r, g, b int }

// parseHex accepts "#RRGGBB", "RRGGBB" or the short "#RGB" form.
func parseHex(s string) (rgb, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return rgb{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid colour %q", s)
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, nil
}

type pdfStyle struct {
	orientation string
	align       string
	headerBG    rgb
	headerText  rgb
	altRow      rgb
}

// resolve fills blanks from the defaults and validates the rest.
func (s PDFSettings) resolve() (PDFSettings, pdfStyle, error) {
	def := DefaultPDFSettings()
	if s.Orientation == "" {
		s.Orientation = def.Orientation
	}
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.TitleSize <= 0 {
		s.TitleSize = def.TitleSize
	}
	if s.TitleAlign == "" {
		s.TitleAlign = def.TitleAlign
	}
	if s.HeaderBG == "" {
		s.HeaderBG = def.HeaderBG
	}
	if s.HeaderText == "" {
		s.HeaderText = def.HeaderText
	}
	if s.AltRow == "" {
		s.AltRow = def.AltRow
	}

	var st pdfStyle
	switch strings.ToLower(s.Orientation) {
	case "landscape", "l":
		st.orientation = "L"
	case "portrait", "p":
		st.orientation = "P"
	default:
		return s, st, fmt.Errorf("invalid orientation %q", s.Orientation)
	}
	switch strings.ToLower(s.TitleAlign) {
	case "left", "l":
		st.align = "L"
	case "center", "centre", "c":
		st.align = "C"
	case "right", "r":
		st.align = "R"
	default:
		return s, st, fmt.Errorf("invalid title alignment %q", s.TitleAlign)
	}

	var err error
	if st.headerBG, err = parseHex(s.HeaderBG); err != nil {
		return s, st, fmt.Errorf("header background: %w", err)
	}
	if st.headerText, err = parseHex(s.HeaderText); err != nil {
		return s, st, fmt.Errorf("header text: %w", err)
	}
	if st.altRow, err = parseHex(s.AltRow); err != nil {
		return s, st, fmt.Errorf("alternate row: %w", err)
	}
	return s, st, nil
}

// PDFExporter draws a title and one table whose header repeats on every page.
type PDFExporter struct {
	Numbered bool
	Settings PDFSettings
}

func (e *PDFExporter) Format() string      { return "pdf" }
func (e *PDFExporter) Extension() string   { return ".pdf" }
func (e *PDFExporter) ContentType() string { return "application/pdf" }

const (
	pdfMargin   = 12.0 // mm
	pdfFontSize = 9.0
	pdfLineH    = 4.5
	pdfPad      = 1.5
	pdfHeaderH  = pdfLineH + 2*pdfPad
)

func (e *PDFExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}
	settings, st, err := e.Settings.resolve()
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}

	pdf := fpdf.New(st.orientation, "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(settings.Title, true)
	pdf.SetCreator("mcqgest", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", settings.TitleSize)
	pdf.CellFormat(0, settings.TitleSize*0.5, tr(settings.Title), "", 1, st.align, false, 0, "")
	pdf.Ln(4)

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(pageW-2*pdfMargin, e.Numbered)
	headers := Headers(e.Numbered)

	bodyStyle := func() {
		pdf.SetFont("Helvetica", "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(st.altRow.r, st.altRow.g, st.altRow.b)
	}
	newPage := func() {
		pdf.AddPage()
		drawHeader(pdf, headers, widths, st)
		bodyStyle()
	}
	// linesFit is how many text lines a row starting at y can hold before
	// the bottom margin.
	linesFit := func(y float64) int {
		return int((pageH - pdfMargin - y - 2*pdfPad) / pdfLineH)
	}
	freshPage := linesFit(pdfMargin + pdfHeaderH)

	drawRow := func(cells []string, shaded bool) {
		lines := make([][]string, len(cells))
		maxLines := 1
		for i, c := range cells {
			lines[i] = pdf.SplitText(tr(c), widths[i]-2*pdfPad)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}

		from := 0
		for i, n := range rowSegments(maxLines, linesFit(pdf.GetY()), freshPage) {
			if i > 0 {
				newPage()
			}
			if n == 0 {
				continue
			}
			drawSegment(pdf, lines, widths, from, n, shaded)
			from += n
		}
	}

	drawHeader(pdf, headers, widths, st)
	bodyStyle()
	for i, r := range t.Records() {
		drawRow(Row(r, e.Numbered), i%2 == 1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSegment draws lines [from, from+n) of every cell as one bordered row
// at the current position.
func drawSegment(pdf *fpdf.Fpdf, lines [][]string, widths []float64, from, n int, shaded bool) {
	style := "D"
	if shaded {
		style = "FD"
	}
	rowH := float64(n)*pdfLineH + 2*pdfPad
	x, y := pdfMargin, pdf.GetY()
	for i, cell := range lines {
		pdf.Rect(x, y, widths[i], rowH, style)
		for j := from; j < from+n && j < len(cell); j++ {
			pdf.SetXY(x+pdfPad, y+pdfPad+float64(j-from)*pdfLineH)
			pdf.CellFormat(widths[i]-2*pdfPad, pdfLineH, cell[j], "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	pdf.SetXY(pdfMargin, y+rowH)
}

// rowSegments splits a row of total lines into the pieces drawn on successive
// pages. avail is the room left on the current page and fresh the room on a
// new page below the header. Every piece after the first starts a new page; a
// leading 0 means the row moves to the next page whole. A row is only split
// when it cannot fit on a single page.
func rowSegments(total, avail, fresh int) []int {
	if total <= avail {
		return []int{total}
	}
	fresh = max(fresh, 1)
	first := 0
	if total > fresh {
		first = max(avail, 0)
	}
	segs := []int{first}
	for left := total - first; left > 0; left -= fresh {
		segs = append(segs, min(left, fresh))
	}
	return segs
}

func drawHeader(pdf *fpdf.Fpdf, headers []string, widths []float64, st pdfStyle) {
	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.SetFillColor(st.headerBG.r, st.headerBG.g, st.headerBG.b)
	pdf.SetTextColor(st.headerText.r, st.headerText.g, st.headerText.b)
	for i, title := range headers {
		pdf.CellFormat(widths[i], pdfHeaderH, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(pdfHeaderH)
}

// columnWidths gives the question column twice the width of an option column
// and the number column a fixed narrow width.
func columnWidths(total float64, numbered bool) []float64 {
	var widths []float64
	if numbered {
		widths = append(widths, 16)
		total -= 16
	}
	unit := total / 6
	widths = append(widths, 2*unit, unit, unit, unit, unit)
	return widths
}

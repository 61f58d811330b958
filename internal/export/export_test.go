package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

func sampleTable(t *testing.T) mcq.Table {
	t.Helper()
	tbl, err := mcq.NewTable([]mcq.Record{
		{Question: "What is 2+2?", Options: [4]string{"3", "4", "5", "22"}},
		{Question: "Pick a | b_c", Options: [4]string{"*bold*", "<tag>", "x & y", "line1\nline2"}},
		{Question: "Café?", Options: [4]string{"oui", "non", "peut-être", ""}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func exporter(t *testing.T, format string, numbered bool) Exporter {
	t.Helper()
	opts := DefaultOptions()
	opts.Numbered = numbered
	e, err := ForFormat(format, opts)
	if err != nil {
		t.Fatalf("ForFormat(%q): %v", format, err)
	}
	return e
}

func TestRegistry_Formats(t *testing.T) {
	want := []string{"csv", "docx", "html", "json", "md", "pdf", "xlsx"}
	if diff := cmp.Diff(want, Formats()); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}

	reg := NewRegistry(DefaultOptions())
	for _, f := range want {
		e, err := reg.Get(f)
		if err != nil {
			t.Fatalf("Get(%q): %v", f, err)
		}
		if e.Format() != f {
			t.Errorf("Get(%q).Format() = %q", f, e.Format())
		}
		if !strings.HasPrefix(e.Extension(), ".") || e.ContentType() == "" {
			t.Errorf("%s: bad extension %q or content type %q", f, e.Extension(), e.ContentType())
		}
	}
	if _, err := reg.Get(" CSV "); err != nil {
		t.Errorf("expected case-insensitive lookup, got %v", err)
	}
	if _, err := reg.Get("rtf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCSV_RowsAndColumns(t *testing.T) {
	tests := []struct {
		name     string
		numbered bool
		want     [][]string
	}{
		{
			name:     "numbered",
			numbered: true,
			want: [][]string{
				{"Number", "Question", "Option A", "Option B", "Option C", "Option D"},
				{"1", "What is 2+2?", "3", "4", "5", "22"},
				{"2", "Pick a | b_c", "*bold*", "<tag>", "x & y", "line1\nline2"},
				{"3", "Café?", "oui", "non", "peut-être", ""},
			},
		},
		{
			name: "plain",
			want: [][]string{
				{"Question", "Option A", "Option B", "Option C", "Option D"},
				{"What is 2+2?", "3", "4", "5", "22"},
				{"Pick a | b_c", "*bold*", "<tag>", "x & y", "line1\nline2"},
				{"Café?", "oui", "non", "peut-être", ""},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := exporter(t, "csv", tt.numbered).Export(sampleTable(t))
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			got, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
			if err != nil {
				t.Fatalf("read csv: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("csv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCSV_EmptyTable(t *testing.T) {
	data, err := exporter(t, "csv", false).Export(mcq.Table{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(data) != "Question,Option A,Option B,Option C,Option D\n" {
		t.Errorf("expected header only, got %q", data)
	}
}

func TestJSON_Numbered(t *testing.T) {
	tbl := sampleTable(t)
	data, err := exporter(t, "json", true).Export(tbl)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var got []mcq.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(tbl.Records(), got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_Plain(t *testing.T) {
	data, err := exporter(t, "json", false).Export(sampleTable(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(got))
	}
	if _, ok := got[0]["question_number"]; ok {
		t.Error("plain export should not carry question_number")
	}
	if got[0]["question"] != "What is 2+2?" {
		t.Errorf("unexpected first question %v", got[0]["question"])
	}
}

func TestJSON_EmptyTable(t *testing.T) {
	data, err := exporter(t, "json", true).Export(mcq.Table{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("expected empty array, got %q", data)
	}
}

func TestMarkdown_Escaping(t *testing.T) {
	data, err := exporter(t, "md", true).Export(sampleTable(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, separator and 3 rows, got %d lines:\n%s", len(lines), data)
	}
	want := []string{
		"| Number | Question | Option A | Option B | Option C | Option D |",
		"| ---: | --- | --- | --- | --- | --- |",
		`| 1 | What is 2+2? | 3 | 4 | 5 | 22 |`,
		`| 2 | Pick a \| b\_c | \*bold\* | \<tag\> | x \& y | line1<br>line2 |`,
		`| 3 | Café? | oui | non | peut-être |  |`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestHTML_Table(t *testing.T) {
	data, err := exporter(t, "html", true).Export(sampleTable(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, nodeText(c))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(rows) != 4 {
		t.Fatalf("expected 4 table rows, got %d", len(rows))
	}
	if diff := cmp.Diff(Headers(true), rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := []string{"2", "Pick a | b_c", "*bold*", "<tag>", "x & y", "line1line2"}
	if diff := cmp.Diff(want, rows[2]); diff != "" {
		t.Errorf("escaped row mismatch (-want +got):\n%s", diff)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func TestXLSX_Rows(t *testing.T) {
	data, err := exporter(t, "xlsx", true).Export(sampleTable(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if diff := cmp.Diff(Headers(true), rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "What is 2+2?", "3", "4", "5", "22"}, rows[1]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
}

var docxRow = regexp.MustCompile(`<w:tr[ >]`)

func TestDOCX_Table(t *testing.T) {
	data, err := exporter(t, "docx", true).Export(sampleTable(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx zip: %v", err)
	}
	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		body = string(b)
	}
	if body == "" {
		t.Fatal("word/document.xml missing")
	}
	if n := len(docxRow.FindAllString(body, -1)); n != 4 {
		t.Errorf("expected 4 table rows, got %d", n)
	}
	for _, s := range []string{docxHeading, "Option D", "What is 2+2?"} {
		if !strings.Contains(body, s) {
			t.Errorf("document.xml missing %q", s)
		}
	}
}

func TestPDF_Render(t *testing.T) {
	records := make([]mcq.Record, 0, 120)
	for i := 0; i < 120; i++ {
		records = append(records, mcq.Record{
			Question: strings.Repeat("A long question that needs wrapping. ", 4),
			Options:  [4]string{"one", "two", "three", "four"},
		})
	}
	tbl, err := mcq.NewTable(records)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	for _, orientation := range []string{"Landscape", "Portrait"} {
		t.Run(orientation, func(t *testing.T) {
			e := &PDFExporter{Numbered: true, Settings: DefaultPDFSettings()}
			e.Settings.Orientation = orientation
			data, err := e.Export(tbl)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Errorf("output is not a PDF: %q", data[:min(len(data), 8)])
			}
		})
	}
}

var pdfPageObj = regexp.MustCompile(`/Type /Page[^s]`)

func TestPDF_QuestionLongerThanAPage(t *testing.T) {
	tbl, err := mcq.NewTable([]mcq.Record{
		{Question: "Short?", Options: [4]string{"a", "b", "c", "d"}},
		{Question: strings.Repeat("word ", 3000) + "end?", Options: [4]string{"a", "b", "c", "d"}},
		{Question: "After?", Options: [4]string{"a", "b", "c", "d"}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	data, err := (&PDFExporter{Numbered: true, Settings: DefaultPDFSettings()}).Export(tbl)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	// A clipped row would stop at two pages: the title page and one overflowing page.
	if pages := len(pdfPageObj.FindAll(data, -1)); pages < 5 {
		t.Errorf("expected the long row to continue over several pages, got %d pages", pages)
	}
}

func TestRowSegments(t *testing.T) {
	tests := []struct {
		name               string
		total, avail, page int
		want               []int
	}{
		{name: "fits", total: 3, avail: 10, page: 40, want: []int{3}},
		{name: "moves whole", total: 12, avail: 10, page: 40, want: []int{0, 12}},
		{name: "exactly a page", total: 40, avail: 10, page: 40, want: []int{0, 40}},
		{name: "splits from current page", total: 100, avail: 5, page: 40, want: []int{5, 40, 40, 15}},
		{name: "no room left", total: 90, avail: 0, page: 40, want: []int{0, 40, 40, 10}},
		{name: "negative room", total: 50, avail: -2, page: 40, want: []int{0, 40, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowSegments(tt.total, tt.avail, tt.page)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rowSegments(%d, %d, %d) mismatch (-want +got):\n%s", tt.total, tt.avail, tt.page, diff)
			}
			sum := 0
			for _, n := range got {
				sum += n
			}
			if sum != tt.total {
				t.Errorf("segments cover %d lines, want %d", sum, tt.total)
			}
		})
	}
}

func TestPDF_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PDFSettings)
	}{
		{name: "bad header colour", mutate: func(s *PDFSettings) { s.HeaderBG = "#GG0000" }},
		{name: "short colour", mutate: func(s *PDFSettings) { s.AltRow = "#12" }},
		{name: "bad orientation", mutate: func(s *PDFSettings) { s.Orientation = "sideways" }},
		{name: "bad alignment", mutate: func(s *PDFSettings) { s.TitleAlign = "justify" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultPDFSettings()
			tt.mutate(&s)
			e := &PDFExporter{Settings: s}
			if _, err := e.Export(sampleTable(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    rgb
		wantErr bool
	}{
		{in: "#808080", want: rgb{128, 128, 128}},
		{in: "FFFFFF", want: rgb{255, 255, 255}},
		{in: "#f00", want: rgb{255, 0, 0}},
		{in: "  #0a0B0c ", want: rgb{10, 11, 12}},
		{in: "", wantErr: true},
		{in: "#12345", wantErr: true},
		{in: "red", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriteFiles_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.PDF.HeaderBG = "not-a-colour"

	results := WriteFiles(dir, "quiz", []string{"csv", "rtf", "pdf", "json"}, sampleTable(t), opts)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	byFormat := map[string]FileResult{}
	for _, r := range results {
		byFormat[r.Format] = r
	}
	for _, f := range []string{"csv", "json"} {
		r := byFormat[f]
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", f, r.Err)
			continue
		}
		if r.Path != filepath.Join(dir, "quiz."+f) {
			t.Errorf("%s: unexpected path %q", f, r.Path)
		}
		if _, err := os.Stat(r.Path); err != nil {
			t.Errorf("%s: file not written: %v", f, err)
		}
	}
	for _, f := range []string{"rtf", "pdf"} {
		if byFormat[f].Err == nil {
			t.Errorf("%s: expected error", f)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "quiz.pdf")); !os.IsNotExist(err) {
		t.Error("failed pdf export should not leave a file behind")
	}
}

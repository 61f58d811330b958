package export

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

const docxHeading = "MCQ Questions"

// DOCXExporter writes a heading followed by a single bordered table.
type DOCXExporter struct {
	Numbered bool
}

func (e *DOCXExporter) Format() string    { return "docx" }
func (e *DOCXExporter) Extension() string { return ".docx" }
func (e *DOCXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (e *DOCXExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}

	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(docxHeading).Bold().Size("32")

	headers := Headers(e.Numbered)
	records := t.Records()
	tbl := doc.AddTable(len(records)+1, len(headers), 0, nil)

	for j, h := range headers {
		cell := tbl.TableRows[0].TableCells[j]
		cell.Shade("clear", "auto", "D9D9D9")
		cell.AddParagraph().AddText(h).Bold()
	}
	for i, r := range records {
		for j, v := range Row(r, e.Numbered) {
			tbl.TableRows[i+1].TableCells[j].AddParagraph().AddText(v)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return buf.Bytes(), nil
}

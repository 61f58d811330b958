package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// SheetName is the worksheet holding the exported table.
const SheetName = "MCQs"

// XLSXExporter writes a workbook with one sheet.
type XLSXExporter struct {
	Numbered bool
}

func (e *XLSXExporter) Format() string    { return "xlsx" }
func (e *XLSXExporter) Extension() string { return ".xlsx" }
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDDDDD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("body style: %w", err)
	}

	headers := Headers(e.Numbered)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range t.Records() {
		row := i + 2
		for j, v := range Row(r, e.Numbered) {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			var value any = v
			if e.Numbered && j == 0 {
				value = r.Number
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r.Number, err)
			}
		}
	}
	if t.Len() > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 2)
		end, _ := excelize.CoordinatesToCellName(len(headers), t.Len()+1)
		if err := f.SetCellStyle(SheetName, first, end, bodyStyle); err != nil {
			return nil, fmt.Errorf("style body: %w", err)
		}
	}

	// Question column wide, options medium, number narrow.
	col := 1
	if e.Numbered {
		_ = f.SetColWidth(SheetName, "A", "A", 8)
		col++
	}
	qCol, _ := excelize.ColumnNumberToName(col)
	firstOpt, _ := excelize.ColumnNumberToName(col + 1)
	lastOpt, _ := excelize.ColumnNumberToName(col + 4)
	_ = f.SetColWidth(SheetName, qCol, qCol, 60)
	_ = f.SetColWidth(SheetName, firstOpt, lastOpt, 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

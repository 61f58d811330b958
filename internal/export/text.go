package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// CSVExporter writes one header row and one row per record.
type CSVExporter struct {
	Numbered bool
}

func (e *CSVExporter) Format() string      { return "csv" }
func (e *CSVExporter) Extension() string   { return ".csv" }
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *CSVExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Headers(e.Numbered)); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Records() {
		if err := w.Write(Row(r, e.Numbered)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", r.Number, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSONExporter writes an array of question objects.
type JSONExporter struct {
	Numbered bool
}

type jsonRecord struct {
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
}

func (e *JSONExporter) Format() string      { return "json" }
func (e *JSONExporter) Extension() string   { return ".json" }
func (e *JSONExporter) ContentType() string { return "application/json" }

func (e *JSONExporter) Export(t mcq.Table) ([]byte, error) {
	if err := checkTable(e.Format(), t); err != nil {
		return nil, err
	}

	var v any
	if e.Numbered {
		v = t.Records()
	} else {
		plain := make([]jsonRecord, 0, t.Len())
		for _, r := range t.Records() {
			plain = append(plain, jsonRecord{Question: r.Question, Options: r.Options})
		}
		v = plain
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}

package mcq

import (
	"fmt"
	"strings"
)

// OptionLabels are the answer labels in the order models are asked to emit them.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Parsed is one question matched in a model reply. Number is whatever the model
// printed and is discarded during assembly.
type Parsed struct {
	Number   int
	Question string
	Options  [4]string
}

// Record is one row of the final table.
type Record struct {
	Number   int       `json:"question_number"`
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
}

// ValidationError reports the first record that breaks the export contract.
type ValidationError struct {
	Row    int // 1-based position in the table
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s %s", e.Row, e.Field, e.Reason)
}

// Table is an ordered, immutable set of records numbered 1..N.
// The zero value is an empty table.
type Table struct {
	records []Record
}

// NewTable replaces a table wholesale, e.g. after a user edit. Every record must
// carry a non-empty question; records are renumbered 1..N in the given order.
func NewTable(records []Record) (Table, error) {
	out := make([]Record, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Question) == "" {
			return Table{}, &ValidationError{Row: i + 1, Field: "question", Reason: "is empty"}
		}
		r.Number = i + 1
		out[i] = r
	}
	return Table{records: out}, nil
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.records) }

// Empty reports whether no MCQs were found.
func (t Table) Empty() bool { return len(t.records) == 0 }

// Records returns a copy of the rows in order.
func (t Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// At returns the i-th record (0-based).
func (t Table) At(i int) Record { return t.records[i] }

// Validate checks the export contract: numbering is contiguous from 1 and every
// question is non-empty.
func (t Table) Validate() error {
	for i, r := range t.records {
		if r.Number != i+1 {
			return &ValidationError{Row: i + 1, Field: "question_number", Reason: fmt.Sprintf("is %d, want %d", r.Number, i+1)}
		}
		if strings.TrimSpace(r.Question) == "" {
			return &ValidationError{Row: i + 1, Field: "question", Reason: "is empty"}
		}
	}
	return nil
}

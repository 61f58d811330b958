package mcq

import "strings"

// Assembler grows a table chunk by chunk, renumbering records as they arrive.
// It is used by a single goroutine; the zero value is ready to use.
type Assembler struct {
	records []Record
}

// Append adds one chunk's parsed records in order, ignoring the numbers the
// model printed. It returns how many records were added.
func (a *Assembler) Append(parsed []Parsed) int {
	added := 0
	for _, p := range parsed {
		if strings.TrimSpace(p.Question) == "" {
			continue
		}
		a.records = append(a.records, Record{
			Number:   len(a.records) + 1,
			Question: p.Question,
			Options:  p.Options,
		})
		added++
	}
	return added
}

// Len returns the number of records assembled so far.
func (a *Assembler) Len() int { return len(a.records) }

// Table freezes the current records into a Table. Later appends do not affect it.
func (a *Assembler) Table() Table {
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return Table{records: out}
}

// Assemble merges per-chunk parse results into one table numbered 1..N in chunk
// order, then parse order. An empty result means no MCQs were found.
func Assemble(perChunk [][]Parsed) Table {
	var a Assembler
	for _, parsed := range perChunk {
		a.Append(parsed)
	}
	return a.Table()
}

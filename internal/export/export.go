package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// Exporter renders a table in one target format.
type Exporter interface {
	Format() string
	Extension() string
	ContentType() string
	Export(t mcq.Table) ([]byte, error)
}

// Options apply to every exporter built by a Registry.
type Options struct {
	// Numbered adds the question number as the first column / field.
	Numbered bool
	PDF      PDFSettings
}

// DefaultOptions exposes numbering and uses the default PDF styling.
func DefaultOptions() Options {
	return Options{Numbered: true, PDF: DefaultPDFSettings()}
}

// Registry maps format names to exporters.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry builds every supported exporter with opts.
func NewRegistry(opts Options) *Registry {
	r := &Registry{exporters: make(map[string]Exporter)}
	for _, e := range []Exporter{
		&CSVExporter{Numbered: opts.Numbered},
		&JSONExporter{Numbered: opts.Numbered},
		&PDFExporter{Numbered: opts.Numbered, Settings: opts.PDF},
		&DOCXExporter{Numbered: opts.Numbered},
		&XLSXExporter{Numbered: opts.Numbered},
		&MarkdownExporter{Numbered: opts.Numbered},
		&HTMLExporter{Numbered: opts.Numbered},
	} {
		r.exporters[e.Format()] = e
	}
	return r
}

// Get returns the exporter for format.
func (r *Registry) Get(format string) (Exporter, error) {
	e, ok := r.exporters[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
	return e, nil
}

// Formats lists the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.exporters))
	for f := range r.exporters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ForFormat is a shortcut for NewRegistry(opts).Get(format).
func ForFormat(format string, opts Options) (Exporter, error) {
	return NewRegistry(opts).Get(format)
}

// Formats lists every supported format name.
func Formats() []string {
	return NewRegistry(DefaultOptions()).Formats()
}

// FileResult is the outcome of writing one format.
type FileResult struct {
	Format string
	Path   string
	Err    error
}

// WriteFiles writes <dir>/<base>.<ext> for each format. A failure affects only
// its own format; the caller inspects each result.
func WriteFiles(dir, base string, formats []string, t mcq.Table, opts Options) []FileResult {
	reg := NewRegistry(opts)
	results := make([]FileResult, 0, len(formats))
	for _, format := range formats {
		res := FileResult{Format: format}
		e, err := reg.Get(format)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Path = filepath.Join(dir, base+e.Extension())
		res.Err = writeOne(e, t, res.Path)
		results = append(results, res)
	}
	return results
}

func writeOne(e Exporter, t mcq.Table, path string) error {
	data, err := e.Export(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", e.Format(), err)
	}
	return nil
}

// Headers returns the column titles in field order.
func Headers(numbered bool) []string {
	h := []string{"Question", "Option A", "Option B", "Option C", "Option D"}
	if numbered {
		h = append([]string{"Number"}, h...)
	}
	return h
}

// Row returns the cells of r in the same order as Headers.
func Row(r mcq.Record, numbered bool) []string {
	row := make([]string, 0, 6)
	if numbered {
		row = append(row, fmt.Sprintf("%d", r.Number))
	}
	row = append(row, r.Question)
	row = append(row, r.Options[:]...)
	return row
}

// checkTable enforces the export contract before any bytes are produced.
func checkTable(format string, t mcq.Table) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

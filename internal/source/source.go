package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedKind is returned for documents that are neither images nor PDFs.
var ErrUnsupportedKind = errors.New("unsupported input kind")

// Kind classifies an input document.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// Document is one input file, read fully into memory.
type Document struct {
	Name string
	Kind Kind
	Data []byte
}

// Ext returns the lowercased extension of the document name.
func (d Document) Ext() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// KindOf derives the document kind from a file name.
func KindOf(name string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		return KindPDF, nil
	case imageExtensions[ext]:
		return KindImage, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return "", fmt.Errorf("%w: extension %s", ErrUnsupportedKind, ext)
}

// IsSupported reports whether name has an image or PDF extension.
func IsSupported(name string) bool {
	_, err := KindOf(name)
	return err == nil
}

// Open reads the document at path.
func Open(path string) (Document, error) {
	kind, err := KindOf(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{Name: filepath.Base(path), Kind: kind, Data: data}, nil
}

// FromBytes wraps an in-memory upload.
func FromBytes(name string, data []byte) (Document, error) {
	kind, err := KindOf(name)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: name, Kind: kind, Data: data}, nil
}

// Extraction is the plain text recovered from a document.
type Extraction struct {
	Text     string
	Pages    int
	Method   string // "image-ocr" | "pdf-text" | "pdftotext" | "pdf-ocr"
	Duration time.Duration
	Warnings []string
}

// Empty reports whether nothing but whitespace was recovered.
func (e Extraction) Empty() bool {
	return strings.TrimSpace(e.Text) == ""
}

// Extractor turns a document into plain text.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (Extraction, error)
}

// Router dispatches documents to the extractor for their kind.
type Router struct {
	image  Extractor
	pdf    Extractor
	logger *slog.Logger
}

// NewRouter builds the tesseract and PDF extractors from opts.
func NewRouter(opts Options, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	runner := execRunner{logger: logger}
	img := &ImageExtractor{opts: opts, runner: runner, logger: logger}
	return &Router{
		image:  img,
		pdf:    &PDFExtractor{opts: opts, runner: runner, ocr: img, logger: logger},
		logger: logger,
	}
}

// Extract picks a strategy based on the document kind.
func (r *Router) Extract(ctx context.Context, doc Document) (Extraction, error) {
	start := time.Now()
	r.logger.Debug("starting text extraction", "name", doc.Name, "kind", doc.Kind, "bytes", len(doc.Data))

	var ext Extractor
	switch doc.Kind {
	case KindImage:
		ext = r.image
	case KindPDF:
		ext = r.pdf
	default:
		r.logger.Error("unsupported document kind", "name", doc.Name, "kind", doc.Kind)
		return Extraction{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, doc.Kind)
	}

	res, err := ext.Extract(ctx, doc)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	r.logger.Info("text extracted",
		"name", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// writeTemp copies doc into a temp file that keeps its extension, so the
// external tools can sniff the format. The returned cleanup removes it.
func writeTemp(doc Document) (string, func(), error) {
	tmp, err := os.CreateTemp("", "mcqgest-*"+doc.Ext())
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

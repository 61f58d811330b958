package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor reads the PDF text layer with the Go library, falling back to
// pdftotext when the library fails and to page OCR when there is no text layer.
type PDFExtractor struct {
	opts   Options
	runner Runner
	ocr    *ImageExtractor
	logger *slog.Logger
}

func (e *PDFExtractor) Extract(ctx context.Context, doc Document) (Extraction, error) {
	res := Extraction{Method: "pdf-text"}

	// The external tools need a file on disk; write it at most once.
	var path string
	var cleanup func()
	tempPath := func() (string, error) {
		if path != "" {
			return path, nil
		}
		p, c, err := writeTemp(doc)
		if err != nil {
			return "", err
		}
		path, cleanup = p, c
		return path, nil
	}
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()

	pages, err := readTextLayer(doc.Data)
	if err != nil {
		if !e.opts.FallbackPdftotext {
			return res, fmt.Errorf("read pdf text: %w", err)
		}
		e.logger.Warn("pdf reader failed, trying pdftotext", "name", doc.Name, "error", err)
		res.Warnings = append(res.Warnings, "pdf reader: "+err.Error())

		p, err := tempPath()
		if err != nil {
			return res, err
		}
		var warn []string
		pages, warn, err = e.pdftotext(ctx, p)
		res.Warnings = append(res.Warnings, warn...)
		if err != nil {
			return res, fmt.Errorf("extract pdf text: %w", err)
		}
		res.Method = "pdftotext"
	}
	res.Pages = len(pages)
	res.Text = joinPages(pages)

	if res.Empty() && e.opts.OCRFallback {
		e.logger.Info("pdf has no text layer, running ocr", "name", doc.Name, "pages", res.Pages)
		p, err := tempPath()
		if err != nil {
			return res, err
		}
		pages, warn, err := e.ocrPages(ctx, p)
		res.Warnings = append(res.Warnings, warn...)
		if err != nil {
			return res, fmt.Errorf("ocr pdf: %w", err)
		}
		res.Method = "pdf-ocr"
		res.Pages = len(pages)
		res.Text = joinPages(pages)
	}
	return res, nil
}

// readTextLayer returns the plain text of every non-null page.
func readTextLayer(data []byte) (pages []string, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdftotext runs `pdftotext -layout -enc UTF-8 -eol unix <path> -` and splits
// the output on form feeds.
func (e *PDFExtractor) pdftotext(ctx context.Context, path string) ([]string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.opts.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, stderrWarning(errb), fmt.Errorf("pdftotext: %w", err)
	}
	if len(out) == 0 {
		return nil, nil, nil
	}
	// Every page, the last included, ends with a form feed.
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil, nil
}

// ocrPages rasterises with `pdftoppm -r <dpi> -png` and OCRs each page image.
func (e *PDFExtractor) ocrPages(ctx context.Context, path string) ([]string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "mcqgest-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.opts.Pdftoppm, "-r", strconv.Itoa(e.opts.DPI), "-png", path, prefix)
	if err != nil {
		return nil, stderrWarning(errb), fmt.Errorf("pdftoppm: %w", err)
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.opts.MaxPages > 0 && len(matches) > e.opts.MaxPages {
		matches = matches[:e.opts.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var pages, warns []string
	for _, img := range matches {
		txt, w, err := e.ocr.ocrFile(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		pages = append(pages, txt)
	}
	return pages, warns, nil
}

// joinPages trims each page and joins the non-empty ones with a single space.
func joinPages(pages []string) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func stderrWarning(errb []byte) []string {
	s := strings.TrimSpace(string(errb))
	if s == "" {
		return nil
	}
	return []string{truncate(s, 512)}
}

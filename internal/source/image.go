package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// ImageExtractor OCRs raster images with tesseract.
type ImageExtractor struct {
	opts   Options
	runner Runner
	logger *slog.Logger
}

func (e *ImageExtractor) Extract(ctx context.Context, doc Document) (Extraction, error) {
	path, cleanup, err := writeTemp(doc)
	if err != nil {
		return Extraction{}, err
	}
	defer cleanup()

	txt, warn, err := e.ocrFile(ctx, path)
	if err != nil {
		return Extraction{Warnings: warn}, err
	}
	return Extraction{
		Text:     strings.TrimSpace(txt),
		Pages:    1,
		Method:   "image-ocr",
		Warnings: warn,
	}, nil
}

// ocrFile runs `tesseract <file> stdout -l <lang>` on one image.
func (e *ImageExtractor) ocrFile(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.opts.TesseractLang}
	if e.opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.opts.PSM))
	}
	if e.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.opts.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.opts.Tesseract, args...)
	if err != nil {
		return "", stderrWarning(errb), fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

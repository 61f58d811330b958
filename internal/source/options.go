package source

import "github.com/dgallion1/mcqgest/internal/config"

// Options configures the external OCR and PDF tools.
type Options struct {
	Tesseract     string // binary name or absolute path; default "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // page segmentation mode; 0 keeps the tesseract default

	Pdftotext         string // default "pdftotext"
	Pdftoppm          string // default "pdftoppm"
	FallbackPdftotext bool   // use pdftotext when the Go PDF reader fails
	OCRFallback       bool   // rasterise and OCR PDFs without a text layer
	DPI               int    // default 300
	MaxPages          int    // 0 = no limit
}

// OptionsFromConfig maps the service configuration onto extractor options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Tesseract:         cfg.TesseractBin,
		TesseractLang:     cfg.TesseractLang,
		TessdataDir:       cfg.TessdataDir,
		PSM:               cfg.TesseractPSM,
		Pdftotext:         cfg.PdftotextBin,
		Pdftoppm:          cfg.PdftoppmBin,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
		OCRFallback:       cfg.PDFOCRFallback,
		DPI:               cfg.PDFOCRDPI,
		MaxPages:          cfg.PDFOCRMaxPages,
	}
}

func (o Options) withDefaults() Options {
	if o.Tesseract == "" {
		o.Tesseract = "tesseract"
	}
	if o.TesseractLang == "" {
		o.TesseractLang = "eng"
	}
	if o.Pdftotext == "" {
		o.Pdftotext = "pdftotext"
	}
	if o.Pdftoppm == "" {
		o.Pdftoppm = "pdftoppm"
	}
	if o.DPI <= 0 {
		o.DPI = 300
	}
	return o
}

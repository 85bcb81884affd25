package extract

import "context"

// Engine abstracts the external tools that produce text from files.
// Implementations must be safe for concurrent use.
type Engine interface {
	// PDFText reads the embedded text layer of a PDF.
	// Returns an empty string, not an error, when the PDF has no text layer.
	PDFText(ctx context.Context, path string) (string, error)

	// PDFOCR rasterizes a PDF and runs OCR over its pages.
	PDFOCR(ctx context.Context, path string) (string, error)

	// ImageOCR runs OCR over a single image file.
	ImageOCR(ctx context.Context, path string) (string, error)
}

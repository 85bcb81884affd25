package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the file extensions the extractor accepts,
// lowercase with leading dot.
var SupportedExtensions = []string{".pdf", ".txt", ".jpg", ".jpeg", ".png", ".tiff"}

// Extractor dispatches files to the right extraction strategy by
// extension.
type Extractor struct {
	engine Engine
	logger *slog.Logger
}

// NewExtractor creates an extractor using the given engine. Pass
// NewExecEngine() for the production tool chain.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{
		engine: engine,
		logger: slog.Default().With("component", "extractor"),
	}
}

// Supported reports whether the filename has an extension the
// extractor can handle.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Text extracts plain text from the file at path. The filename decides
// the strategy; it may differ from path when files are stored under
// generated names.
func (x *Extractor) Text(ctx context.Context, path, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return x.pdfText(ctx, path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".jpg", ".jpeg", ".png", ".tiff":
		return x.engine.ImageOCR(ctx, path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// pdfText tries the embedded text layer first and falls back to OCR
// for scanned documents.
func (x *Extractor) pdfText(ctx context.Context, path string) (string, error) {
	text, err := x.engine.PDFText(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	x.logger.Info("PDF has no text layer, falling back to OCR", "path", path)
	return x.engine.PDFOCR(ctx, path)
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// defaultOCRLanguage is the tesseract language pack used for OCR.
const defaultOCRLanguage = "ita"

// ExecEngine implements Engine by shelling out to poppler-utils and
// tesseract.
type ExecEngine struct {
	ocrLanguage string
	logger      *slog.Logger
}

// ExecEngineOption configures an ExecEngine.
type ExecEngineOption func(*ExecEngine)

// WithOCRLanguage sets the tesseract language pack.
func WithOCRLanguage(lang string) ExecEngineOption {
	return func(e *ExecEngine) {
		e.ocrLanguage = lang
	}
}

// NewExecEngine creates an engine backed by the pdftotext, pdftoppm, and
// tesseract command-line tools, which must be installed on the host.
func NewExecEngine(opts ...ExecEngineOption) *ExecEngine {
	engine := &ExecEngine{
		ocrLanguage: defaultOCRLanguage,
		logger:      slog.Default().With("component", "extract-engine"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// PDFText reads the embedded text layer of a PDF via pdftotext.
func (e *ExecEngine) PDFText(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		e.logger.Error("pdftotext failed", "path", path, "err", err)
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// PDFOCR rasterizes the PDF with pdftoppm and runs tesseract on each page.
func (e *ExecEngine) PDFOCR(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "archivist-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if _, err := exec.CommandContext(ctx, "pdftoppm", "-r", "300", "-png", path, prefix).Output(); err != nil {
		e.logger.Error("pdftoppm failed", "path", path, "err", err)
		return "", fmt.Errorf("pdftoppm: %w", err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	sort.Strings(pages)

	var sb strings.Builder
	for _, page := range pages {
		text, err := e.ImageOCR(ctx, page)
		if err != nil {
			return "", err
		}
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text)
		}
	}

	e.logger.Debug("ran OCR over PDF", "path", path, "pages", len(pages))
	return sb.String(), nil
}

// ImageOCR runs tesseract over an image file.
func (e *ExecEngine) ImageOCR(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", e.ocrLanguage).Output()
	if err != nil {
		e.logger.Error("tesseract failed", "path", path, "err", err)
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

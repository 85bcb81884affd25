package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine records which extraction path was taken.
type stubEngine struct {
	pdfText     string
	pdfOCRText  string
	imageText   string
	pdfTextHits int
	pdfOCRHits  int
	imageHits   int
}

func (s *stubEngine) PDFText(ctx context.Context, path string) (string, error) {
	s.pdfTextHits++
	return s.pdfText, nil
}

func (s *stubEngine) PDFOCR(ctx context.Context, path string) (string, error) {
	s.pdfOCRHits++
	return s.pdfOCRText, nil
}

func (s *stubEngine) ImageOCR(ctx context.Context, path string) (string, error) {
	s.imageHits++
	return s.imageText, nil
}

func TestTextPDFWithTextLayer(t *testing.T) {
	engine := &stubEngine{pdfText: "decreto ingiuntivo n. 123"}
	x := NewExtractor(engine)

	text, err := x.Text(context.Background(), "/tmp/doc.pdf", "doc.pdf")

	require.NoError(t, err)
	assert.Equal(t, "decreto ingiuntivo n. 123", text)
	assert.Equal(t, 1, engine.pdfTextHits)
	assert.Equal(t, 0, engine.pdfOCRHits)
}

func TestTextPDFFallsBackToOCR(t *testing.T) {
	engine := &stubEngine{pdfText: "  \n ", pdfOCRText: "testo da scansione"}
	x := NewExtractor(engine)

	text, err := x.Text(context.Background(), "/tmp/scan.pdf", "scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, "testo da scansione", text)
	assert.Equal(t, 1, engine.pdfTextHits)
	assert.Equal(t, 1, engine.pdfOCRHits)
}

func TestTextImageUsesOCR(t *testing.T) {
	engine := &stubEngine{imageText: "verbale fotografato"}
	x := NewExtractor(engine)

	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.tiff"} {
		text, err := x.Text(context.Background(), "/tmp/"+name, name)
		require.NoError(t, err)
		assert.Equal(t, "verbale fotografato", text)
	}
	assert.Equal(t, 4, engine.imageHits)
}

func TestTextPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.txt")
	require.NoError(t, os.WriteFile(path, []byte("contenuto del memo"), 0o644))

	x := NewExtractor(&stubEngine{})

	text, err := x.Text(context.Background(), path, "memo.txt")

	require.NoError(t, err)
	assert.Equal(t, "contenuto del memo", text)
}

func TestTextUnsupportedExtension(t *testing.T) {
	x := NewExtractor(&stubEngine{})

	_, err := x.Text(context.Background(), "/tmp/doc.docx", "doc.docx")

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("atto.pdf"))
	assert.True(t, Supported("ATTO.PDF"))
	assert.True(t, Supported("nota.txt"))
	assert.False(t, Supported("tabella.xlsx"))
	assert.False(t, Supported("senza-estensione"))
}

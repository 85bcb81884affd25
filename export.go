package archivist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/poiesic/archivist/core"
)

// ErrUnknownExportFormat indicates an export format other than txt or
// json was requested.
var ErrUnknownExportFormat = errors.New("unknown export format")

// Export formats.
const (
	ExportText = "txt"
	ExportJSON = "json"
)

// ExportDocument renders a document for download. The txt format
// returns the extracted text; the json format returns the full
// document record including entities, summary, and processing state.
func (a *Archive) ExportDocument(ctx context.Context, id core.ID, format string) ([]byte, error) {
	doc, err := a.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportText:
		return []byte(doc.Text), nil
	case ExportJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}
}

package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates the file extension is not one the
	// extractor knows how to read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoText indicates extraction ran but produced no usable text.
	ErrNoText = errors.New("no text could be extracted")
)

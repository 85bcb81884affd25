// Package extract turns uploaded document files into plain text.
//
// PDFs are read through their embedded text layer first; scanned PDFs
// with no text layer fall back to OCR. Image files go straight to OCR,
// and plain text files are read verbatim. The external tool invocations
// (pdftotext, pdftoppm, tesseract) live behind the Engine interface so
// tests can substitute a stub.
package extract

// Package pipeline runs the document analysis lifecycle.
//
// A triggered document is claimed atomically (PENDING, COMPLETED, or
// ERROR into PROCESSING), then processed in the background: text
// extraction, embedding, classification, entity extraction, and
// summarization, finishing with a single atomic write that marks the
// document COMPLETED. Any step failure marks the document ERROR with
// the failing stage recorded, keeping whatever partial results were
// already computed.
//
// Re-running a completed document is cheap: entity extraction and
// summarization results are cached against the exact document text, so
// an unchanged document hits the cache for both.
package pipeline

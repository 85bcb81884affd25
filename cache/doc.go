// Package cache memoizes per-document AI operation results.
//
// Results are keyed by operation name plus a SHA-256 hash of the input
// text and stored in the document's metadata, so they travel with the
// document and survive restarts. Entries expire after a TTL; reads
// treat expired entries as misses and a periodic sweep removes them
// from storage.
package cache

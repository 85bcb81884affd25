package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs come from a database sequence; entity tuple IDs are
// generated with content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentType classifies a document by its legal function.
type DocumentType string

const (
	// TypeDecree is a court decree.
	TypeDecree DocumentType = "decree"
	// TypeInjunction is a payment injunction.
	TypeInjunction DocumentType = "injunction"
	// TypeJudgment is a court judgment.
	TypeJudgment DocumentType = "judgment"
	// TypeExpertReport is a technical expert report.
	TypeExpertReport DocumentType = "expert-report"
	// TypeOther is the undetermined sentinel. Documents uploaded as
	// TypeOther are classified from content during processing.
	TypeOther DocumentType = "other"
)

// DocumentTypes lists all valid document types.
var DocumentTypes = []DocumentType{
	TypeDecree, TypeInjunction, TypeJudgment, TypeExpertReport, TypeOther,
}

// ParseDocumentType returns the DocumentType matching the given label.
func ParseDocumentType(label string) (DocumentType, error) {
	for _, t := range DocumentTypes {
		if string(t) == label {
			return t, nil
		}
	}
	return "", ErrUnknownDocumentType
}

// ProcessingState tracks a document through its lifecycle.
// Transitions are monotonic within one run:
// PENDING -> PROCESSING -> COMPLETED | ERROR.
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateError      ProcessingState = "error"
)

// ProcessingStates lists every lifecycle state.
var ProcessingStates = []ProcessingState{
	StatePending, StateProcessing, StateCompleted, StateError,
}

// ParseProcessingState maps a state label to its enum value.
func ParseProcessingState(label string) (ProcessingState, error) {
	for _, s := range ProcessingStates {
		if string(s) == label {
			return s, nil
		}
	}
	return "", ErrUnknownState
}

// CanTransition reports whether a transition from s to next is allowed.
// Only PROCESSING may reach a terminal state; any non-PROCESSING state
// may (re-)enter PROCESSING when analysis is triggered.
func (s ProcessingState) CanTransition(next ProcessingState) bool {
	switch next {
	case StateProcessing:
		return s != StateProcessing
	case StateCompleted, StateError:
		return s == StateProcessing
	default:
		return false
	}
}

// FileDescriptor records where and how the original file is stored.
type FileDescriptor struct {
	Path     string `json:"path"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type,omitempty"`
}

// EntityBag holds the structured entities extracted from a document.
// All lists are deduplicated and sorted ascending.
type EntityBag struct {
	Persons       []string `json:"persons,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
	Places        []string `json:"places,omitempty"`
	Dates         []string `json:"dates,omitempty"`
	Amounts       []string `json:"amounts,omitempty"`
	LegalRefs     []string `json:"legal_refs,omitempty"`
}

// EntityCategories lists the entity bag categories in a fixed order.
var EntityCategories = []string{
	"persons", "organizations", "places", "dates", "amounts", "legal_refs",
}

// Category returns the entity list for the named category.
func (b *EntityBag) Category(name string) []string {
	switch name {
	case "persons":
		return b.Persons
	case "organizations":
		return b.Organizations
	case "places":
		return b.Places
	case "dates":
		return b.Dates
	case "amounts":
		return b.Amounts
	case "legal_refs":
		return b.LegalRefs
	}
	return nil
}

// Contains reports whether the named category contains value.
func (b *EntityBag) Contains(category, value string) bool {
	for _, v := range b.Category(category) {
		if v == value {
			return true
		}
	}
	return false
}

// EntityTuple returns the canonical "(category,value)" form used for
// deterministic entity index IDs.
func EntityTuple(category, value string) string {
	return "(" + category + "," + value + ")"
}

// CacheEntry is one memoized operation result stored inside a
// document's metadata cache namespace. Version tags the payload
// format so it can be migrated without a schema change.
type CacheEntry struct {
	Result    json.RawMessage `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
}

// ProcessingError captures a pipeline failure for a document.
type ProcessingError struct {
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Metadata is the typed per-document metadata aggregate. It replaces
// the free-form nested map of earlier designs with explicit
// sub-structures.
type Metadata struct {
	Entities *EntityBag            `json:"entities,omitempty"`
	Summary  string                `json:"summary,omitempty"`
	Cache    map[string]CacheEntry `json:"cache,omitempty"`
	Error    *ProcessingError      `json:"error,omitempty"`
}

// Document is the central aggregate: an uploaded file plus everything
// the pipeline derived from it.
type Document struct {
	Id          ID
	Filename    string
	Type        DocumentType
	Text        string          // Extracted text (empty until processed)
	Vector      []float32       // Embedding vector (nil until computed)
	Metadata    Metadata        // Entities, summary, cache entries, error details
	State       ProcessingState
	ErrorDetail string          // Non-empty iff State == StateError
	File        FileDescriptor
	UploadedAt  time.Time
	ProcessedAt time.Time // Zero until the document completes a run
	UpdatedAt   time.Time
}

// Entities returns the document's entity bag, never nil.
func (d *Document) Entities() *EntityBag {
	if d.Metadata.Entities == nil {
		return &EntityBag{}
	}
	return d.Metadata.Entities
}

// ScoredDocument pairs a document with a similarity score from a
// vector scan.
type ScoredDocument struct {
	Document *Document
	Score    float32
}

// SearchResult is one hit returned to a caller. Highlights are
// ephemeral fragments of the document text around query occurrences.
type SearchResult struct {
	Document   *Document
	Score      float32
	Highlights []string
}

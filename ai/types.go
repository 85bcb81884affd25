package ai

// DocumentTypeLabels defines the valid labels a Classifier may return.
// They mirror the core document type enumeration.
var DocumentTypeLabels = []string{
	"decree",
	"injunction",
	"judgment",
	"expert-report",
	"other",
}

// ExtractedEntities is the structured entity bag produced by an
// EntityExtractor. All lists are deduplicated and sorted ascending.
type ExtractedEntities struct {
	// Persons are personal names, e.g. "Mario Rossi".
	Persons []string `json:"persons"`

	// Organizations are company, institution, and court names.
	Organizations []string `json:"organizations"`

	// Places are geographic locations.
	Places []string `json:"places"`

	// Dates are date mentions in YYYY-MM-DD form where determinable.
	Dates []string `json:"dates"`

	// Amounts are monetary amounts as locale-formatted strings,
	// e.g. "1.234,56" (thousands ".", decimals ",").
	Amounts []string `json:"amounts"`

	// LegalRefs are normative references, e.g. "art. 633 c.p.c.".
	LegalRefs []string `json:"legal_refs"`
}

// ParsedQuery is the structured interpretation of a natural-language
// search query. Zero values mean the dimension was not specified.
type ParsedQuery struct {
	// SearchText is the free-text portion to search semantically.
	SearchText string

	// DocType is a document type label, empty if unspecified.
	DocType string

	// DateStart and DateEnd bound the upload date range, in
	// YYYY-MM-DD form, empty if unspecified.
	DateStart string
	DateEnd   string

	// Entities maps entity categories (persons, organizations,
	// places) to required values.
	Entities map[string][]string
}

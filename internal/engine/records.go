// Package engine implements the document relationship resolution core:
// semantic document classification, type-specific identifier extraction,
// agreement grouping, and invoice-to-contract matching. The engine is pure
// computation over supplied document text; persistence and transport are
// handled by the surrounding domains.
package engine

import (
	"slices"
	"time"
)

// DetectedType is one semantic classification of a document. Primary marks
// types whose evidence appears near the start of the text (the document's own
// subject); non-primary entries are references to other documents.
type DetectedType struct {
	Type       DocType `json:"type"`
	Primary    bool    `json:"primary"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
}

// ExtractedID is the identifier extraction outcome for one detected type.
// A nil ID with zero confidence is the expected no-signal outcome, not an error.
type ExtractedID struct {
	Type       DocType `json:"type"`
	ID         *string `json:"id"`
	Confidence float64 `json:"confidence"`
}

// DocumentRecord is one physical agreement-family file with its classification
// and extraction results. Records are created once per batch run and never
// mutated afterward.
type DocumentRecord struct {
	Path           string         `json:"path"`
	Filename       string         `json:"filename"`
	RawText        string         `json:"-"`
	DetectedTypes  []DetectedType `json:"detected_types"`
	ExtractedIDs   []ExtractedID  `json:"extracted_ids"`
	Parties        []string       `json:"parties"`
	FilenameTokens []string       `json:"filename_tokens"`
	ProgramCode    *string        `json:"program_code"`
	Dates          []time.Time    `json:"dates"`
}

// PrimaryType returns the highest-confidence primary classification.
func (d *DocumentRecord) PrimaryType() (DocType, bool) {
	for _, t := range d.DetectedTypes {
		if t.Primary {
			return t.Type, true
		}
	}
	return DocTypeUnknown, false
}

// Identifiers returns the sorted set of non-null extracted identifier values.
func (d *DocumentRecord) Identifiers() []string {
	ids := make([]string, 0, len(d.ExtractedIDs))
	for _, e := range d.ExtractedIDs {
		if e.ID != nil {
			ids = append(ids, *e.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// RelationshipKind labels the signal that linked a related document to a group.
type RelationshipKind string

// Relationship kinds in descending signal strength.
const (
	RelationCrossReference RelationshipKind = "CROSS_REFERENCE"
	RelationPartyNaming    RelationshipKind = "PARTY_AND_NAMING"
)

// RelatedDocument records one document claimed by an agreement group together
// with the evidence that justified the claim.
type RelatedDocument struct {
	Path       string           `json:"path"`
	Kind       RelationshipKind `json:"relationship_kind"`
	Confidence float64          `json:"confidence"`
	Evidence   string           `json:"evidence"`
}

// DateRange is an inclusive date interval derived from a group's documents.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range, bounds inclusive.
func (r *DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// AgreementGroup is a cluster of related non-invoice documents believed to
// form one legal relationship. Groups are immutable once built.
type AgreementGroup struct {
	GroupKey         string            `json:"group_key"`
	PrimaryDocument  string            `json:"primary_document_path"`
	RelatedDocuments []RelatedDocument `json:"related_documents"`
	KeyIdentifiers   []string          `json:"key_identifiers"`
	Parties          []string          `json:"parties"`
	ProgramCodes     []string          `json:"program_codes"`
	DateRange        *DateRange        `json:"date_range,omitempty"`
}

// DocumentPaths returns the primary document path followed by all related
// document paths.
func (g *AgreementGroup) DocumentPaths() []string {
	paths := make([]string, 0, len(g.RelatedDocuments)+1)
	paths = append(paths, g.PrimaryDocument)
	for _, r := range g.RelatedDocuments {
		paths = append(paths, r.Path)
	}
	return paths
}

// InvoiceRecord carries one invoice's extracted fields. Fields are produced by
// the upstream invoice parsing collaborator; the engine consumes them read-only
// and never re-derives them.
type InvoiceRecord struct {
	Path        string     `json:"path"`
	Filename    string     `json:"filename"`
	PONumber    *string    `json:"po_number"`
	VendorName  *string    `json:"vendor_name"`
	BuyerName   *string    `json:"buyer_name"`
	ProgramCode *string    `json:"program_code"`
	InvoiceDate *time.Time `json:"invoice_date"`
	RawText     string     `json:"-"`
}

// MatchStatus is the outcome category of an invoice match decision.
type MatchStatus string

// Match statuses.
const (
	StatusMatched   MatchStatus = "MATCHED"
	StatusAmbiguous MatchStatus = "AMBIGUOUS"
	StatusUnmatched MatchStatus = "UNMATCHED"
)

// MatchMethod identifies the cascade tier that produced a match.
type MatchMethod string

// Match methods in descending priority.
const (
	MethodPONumber      MatchMethod = "PO_NUMBER"
	MethodVendorProgram MatchMethod = "VENDOR_AND_PROGRAM"
	MethodVendorDate    MatchMethod = "VENDOR_AND_DATE"
	MethodProgramOnly   MatchMethod = "PROGRAM_CODE_ONLY"
	MethodVendorOnly    MatchMethod = "VENDOR_ONLY"
)

// AlternativeMatch is a runner-up candidate from an ambiguous match tier.
type AlternativeMatch struct {
	ContractID string      `json:"contract_id"`
	Method     MatchMethod `json:"method"`
	Confidence float64     `json:"confidence"`
}

// MatchResult is the decision for one invoice. Exactly one of the three
// statuses holds: MATCHED when a single candidate survived the winning tier,
// AMBIGUOUS when two or more tied, UNMATCHED when no tier produced any.
type MatchResult struct {
	InvoicePath        string             `json:"invoice_path"`
	Status             MatchStatus        `json:"status"`
	ContractID         *string            `json:"contract_id"`
	MatchMethod        *MatchMethod       `json:"match_method"`
	Confidence         float64            `json:"confidence"`
	MatchingDetails    map[string]any     `json:"matching_details"`
	AlternativeMatches []AlternativeMatch `json:"alternative_matches"`
}

// ItemError records a stage-local failure for a single document or invoice.
// Item failures never abort the batch; they are reported alongside results.
type ItemError struct {
	Path    string `json:"path"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// BatchResult is the complete output of one resolution run.
type BatchResult struct {
	Groups  []AgreementGroup `json:"groups"`
	Matches []MatchResult    `json:"matches"`
	Errors  []ItemError      `json:"errors"`
}

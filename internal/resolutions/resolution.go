// Package resolutions implements resolution runs for Accord. A run takes
// every registered document and invoice, executes the resolution engine over
// the batch, and persists the resulting agreement groups, match decisions,
// item errors, and audit trail as one immutable record.
package resolutions

import (
	"time"

	"github.com/google/uuid"

	"github.com/accordhq/accord/internal/engine"
	"github.com/accordhq/accord/internal/rules"
)

// Run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Relation label for a group's primary document; related documents carry
// the engine's relationship kinds.
const RelationPrimary = "PRIMARY"

// Run is one resolution run with its summary counts. Failure is set only
// when Status is FAILED.
type Run struct {
	ID             uuid.UUID  `json:"id"`
	Status         string     `json:"status"`
	DocumentCount  int        `json:"document_count"`
	InvoiceCount   int        `json:"invoice_count"`
	GroupCount     int        `json:"group_count"`
	MatchedCount   int        `json:"matched_count"`
	AmbiguousCount int        `json:"ambiguous_count"`
	UnmatchedCount int        `json:"unmatched_count"`
	ErrorCount     int        `json:"error_count"`
	Failure        *string    `json:"failure,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// Group is one persisted agreement group from a run.
type Group struct {
	ID             uuid.UUID       `json:"id"`
	RunID          uuid.UUID       `json:"run_id"`
	GroupKey       string          `json:"group_key"`
	PrimaryPath    string          `json:"primary_path"`
	KeyIdentifiers []string        `json:"key_identifiers"`
	Parties        []string        `json:"parties"`
	ProgramCodes   []string        `json:"program_codes"`
	DateStart      *time.Time      `json:"date_start"`
	DateEnd        *time.Time      `json:"date_end"`
	Documents      []GroupDocument `json:"documents"`
}

// GroupDocument is one member of a persisted agreement group together with
// the evidence that placed it there.
type GroupDocument struct {
	Path       string  `json:"path"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// Match is one persisted invoice match decision from a run.
type Match struct {
	ID           uuid.UUID                 `json:"id"`
	RunID        uuid.UUID                 `json:"run_id"`
	InvoicePath  string                    `json:"invoice_path"`
	Status       string                    `json:"status"`
	ContractID   *string                   `json:"contract_id"`
	MatchMethod  *string                   `json:"match_method"`
	Confidence   float64                   `json:"confidence"`
	Details      map[string]any            `json:"details"`
	Alternatives []engine.AlternativeMatch `json:"alternatives,omitempty"`
}

// RunError is one persisted item-level failure from a run.
type RunError struct {
	ID      uuid.UUID `json:"id"`
	RunID   uuid.UUID `json:"run_id"`
	Path    string    `json:"path"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

// AuditRecord is one persisted engine decision event from a run.
type AuditRecord struct {
	ID         uuid.UUID      `json:"id"`
	RunID      uuid.UUID      `json:"run_id"`
	Stage      string         `json:"stage"`
	Subject    string         `json:"subject"`
	Decision   string         `json:"decision"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// ContractRuleSet is the persisted rule extraction output for one agreement
// group from a run.
type ContractRuleSet struct {
	ID              uuid.UUID             `json:"id"`
	RunID           uuid.UUID             `json:"run_id"`
	ContractID      string                `json:"contract_id"`
	Parties         []string              `json:"parties"`
	ProgramCodes    []string              `json:"program_codes"`
	SourceDocuments []string              `json:"source_documents"`
	Rules           []rules.Rule          `json:"rules"`
	Inconsistencies []rules.Inconsistency `json:"inconsistencies"`
	Hierarchy       rules.Hierarchy       `json:"hierarchy"`
	ExtractedAt     time.Time             `json:"extracted_at"`
}

// RunDetail is a completed run with its full output.
type RunDetail struct {
	Run     Run        `json:"run"`
	Groups  []Group    `json:"groups"`
	Matches []Match    `json:"matches"`
	Errors  []RunError `json:"errors"`
}

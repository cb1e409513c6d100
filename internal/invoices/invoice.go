// Package invoices implements the invoice domain for Accord. Uploaded
// invoices have their text extracted and their fields parsed at
// registration; the resolution runner consumes the parsed fields when
// matching invoices to agreement groups.
package invoices

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses.
const (
	StatusRegistered = "REGISTERED"
)

// Invoice represents a registered invoice with its parsed fields and blob
// storage reference. Parsed fields are nil when no signal was found in the
// extracted text.
type Invoice struct {
	ID                  uuid.UUID  `json:"id"`
	Filename            string     `json:"filename"`
	ContentType         string     `json:"content_type"`
	SizeBytes           int64      `json:"size_bytes"`
	StorageKey          string     `json:"storage_key"`
	InvoiceNumber       *string    `json:"invoice_number"`
	Vendor              *string    `json:"vendor"`
	PONumber            *string    `json:"po_number"`
	ProgramCode         *string    `json:"program_code"`
	InvoiceDate         *time.Time `json:"invoice_date"`
	Amount              *float64   `json:"amount"`
	Currency            *string    `json:"currency"`
	ServicesDescription *string    `json:"services_description"`
	PaymentTerms        *string    `json:"payment_terms"`
	ExtractedText       string     `json:"extracted_text,omitempty"`
	Status              string     `json:"status"`
	UploadedAt          time.Time  `json:"uploaded_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// invoice. Data holds the raw file bytes; the parsed fields are derived by
// the caller before creation.
type CreateCommand struct {
	Data                []byte
	Filename            string
	ContentType         string
	ExtractedText       string
	InvoiceNumber       *string
	Vendor              *string
	PONumber            *string
	ProgramCode         *string
	InvoiceDate         *time.Time
	Amount              *float64
	Currency            *string
	ServicesDescription *string
	PaymentTerms        *string
}

// Package documents implements the agreement document domain for Accord.
// It provides types, data access, and business logic for document upload,
// text extraction, registration-time classification, and blob storage
// integration.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses.
const (
	StatusRegistered = "REGISTERED"
)

// Document represents a registered agreement-family document with its
// metadata, classification, and blob storage reference. DocType holds the
// primary classification detected at upload; UNKNOWN when no content or
// filename signal matched.
type Document struct {
	ID             uuid.UUID `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	SizeBytes      int64     `json:"size_bytes"`
	PageCount      *int      `json:"page_count"`
	StorageKey     string    `json:"storage_key"`
	DocType        string    `json:"doc_type"`
	TypeConfidence float64   `json:"type_confidence"`
	ExtractedText  string    `json:"extracted_text,omitempty"`
	Status         string    `json:"status"`
	UploadedAt     time.Time `json:"uploaded_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// document. Data holds the raw file bytes; ExtractedText, PageCount,
// DocType, and TypeConfidence are derived by the caller before creation.
type CreateCommand struct {
	Data           []byte
	Filename       string
	ContentType    string
	PageCount      *int
	ExtractedText  string
	DocType        string
	TypeConfidence float64
}

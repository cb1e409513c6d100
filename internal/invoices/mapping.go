package invoices

import (
	"net/url"

	"github.com/accordhq/accord/pkg/query"
	"github.com/accordhq/accord/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "invoices", "i").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("storage_key", "StorageKey").
	Project("invoice_number", "InvoiceNumber").
	Project("vendor", "Vendor").
	Project("po_number", "PONumber").
	Project("program_code", "ProgramCode").
	Project("invoice_date", "InvoiceDate").
	Project("amount", "Amount").
	Project("currency", "Currency").
	Project("services_description", "ServicesDescription").
	Project("payment_terms", "PaymentTerms").
	Project("extracted_text", "ExtractedText").
	Project("status", "Status").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for invoice queries. Nil
// fields are ignored. Status, PONumber, ProgramCode, and Currency use exact
// matching. Filename and Vendor use case-insensitive contains matching.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	Filename    *string `json:"filename,omitempty"`
	Vendor      *string `json:"vendor,omitempty"`
	PONumber    *string `json:"po_number,omitempty"`
	ProgramCode *string `json:"program_code,omitempty"`
	Currency    *string `json:"currency,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Filename", f.Filename).
		WhereContains("Vendor", f.Vendor).
		WhereEquals("PONumber", f.PONumber).
		WhereEquals("ProgramCode", f.ProgramCode).
		WhereEquals("Currency", f.Currency)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if v := values.Get("vendor"); v != "" {
		f.Vendor = &v
	}

	if po := values.Get("po_number"); po != "" {
		f.PONumber = &po
	}

	if pc := values.Get("program_code"); pc != "" {
		f.ProgramCode = &pc
	}

	if c := values.Get("currency"); c != "" {
		f.Currency = &c
	}

	return f
}

func scanInvoice(s repository.Scanner) (Invoice, error) {
	var i Invoice
	err := s.Scan(
		&i.ID,
		&i.Filename,
		&i.ContentType,
		&i.SizeBytes,
		&i.StorageKey,
		&i.InvoiceNumber,
		&i.Vendor,
		&i.PONumber,
		&i.ProgramCode,
		&i.InvoiceDate,
		&i.Amount,
		&i.Currency,
		&i.ServicesDescription,
		&i.PaymentTerms,
		&i.ExtractedText,
		&i.Status,
		&i.UploadedAt,
		&i.UpdatedAt,
	)
	return i, err
}

package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InvoiceFields holds the structured fields extracted from invoice content.
// Every field comes from the document text itself, never the filename; a nil
// field means the content carried no signal for it.
type InvoiceFields struct {
	InvoiceID           *string    `json:"invoice_id"`
	Vendor              *string    `json:"vendor"`
	PONumber            *string    `json:"po_number"`
	InvoiceDate         *time.Time `json:"invoice_date"`
	Amount              *float64   `json:"amount"`
	ServicesDescription *string    `json:"services_description"`
	PaymentTerms        *string    `json:"payment_terms"`
	Currency            string     `json:"currency"`
}

var (
	invoiceIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*#:?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)invoice\s+number:?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)invoice\s+id:?\s*([A-Z0-9-]+)`),
	}

	poPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)po\s+number:\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)po\s*#:?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)purchase\s+order\s*#?:?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)p\.o\.\s*#?:?\s*([A-Z0-9-]+)`),
	}

	vendorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)from:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)vendor:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)billed by:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)supplier:\s*([^\n]+)`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:invoice\s+)?date:?\s*(\d{4}[-/]\d{2}[-/]\d{2})`),
		regexp.MustCompile(`(\d{4}[-/]\d{2}[-/]\d{2})`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)amount:?\s*\$?([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)total:?\s*\$?([\d,]+\.?\d*)`),
		regexp.MustCompile(`\$\s*([\d,]+\.?\d*)`),
	}

	descPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Services\s*\n\s*([^\n]+)`),
		regexp.MustCompile(`(?i)services?\s*:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)description:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)for:?\s*([^\n]+)`),
	}

	termsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)payment\s+terms?:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)net\s+(\d+)`),
	}

	descProgramCodeRe = regexp.MustCompile(`\b([A-Z]{2,4})\b`)
)

// currencyMarkers in precedence order; a dollar sign implies USD.
var currencyMarkers = []struct {
	pattern *regexp.Regexp
	code    string
}{
	{regexp.MustCompile(`(?i)usd`), "USD"},
	{regexp.MustCompile(`(?i)eur`), "EUR"},
	{regexp.MustCompile(`(?i)gbp`), "GBP"},
	{regexp.MustCompile(`\$`), "USD"},
}

// ParseInvoiceFields extracts structured invoice fields from content. Each
// field tries its patterns in order and keeps the first hit; missing fields
// stay nil. Currency defaults to USD.
func ParseInvoiceFields(content string) InvoiceFields {
	fields := InvoiceFields{Currency: "USD"}

	fields.InvoiceID = firstCapture(invoiceIDPatterns, content)
	fields.PONumber = firstCapture(poPatterns, content)

	if raw := firstCapture(vendorPatterns, content); raw != nil {
		vendor := strings.TrimSpace(*raw)
		if vendor != "" && len(vendor) < 100 {
			fields.Vendor = &vendor
		}
	}

	if raw := firstCapture(datePatterns, content); raw != nil {
		normalized := strings.ReplaceAll(*raw, "/", "-")
		if t, err := time.Parse("2006-01-02", normalized); err == nil {
			fields.InvoiceDate = &t
		}
	}

	for _, pattern := range amountPatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		fields.Amount = &amount
		break
	}

	if raw := firstCapture(descPatterns, content); raw != nil {
		desc := strings.TrimSpace(*raw)
		if desc != "" && len(desc) < 200 {
			fields.ServicesDescription = &desc
		}
	}

	fields.PaymentTerms = firstCapture(termsPatterns, content)

	for _, marker := range currencyMarkers {
		if marker.pattern.MatchString(content) {
			fields.Currency = marker.code
			break
		}
	}

	return fields
}

// ProgramCode derives an invoice's program code from its services
// description, falling back to nothing: program codes never come from
// invoice filenames.
func (f InvoiceFields) ProgramCode() *string {
	if f.ServicesDescription == nil {
		return nil
	}
	for _, m := range descProgramCodeRe.FindAllStringSubmatch(*f.ServicesDescription, -1) {
		switch m[1] {
		case "USD", "EUR", "GBP", "NET", "THE", "FOR", "AND":
			continue
		default:
			code := m[1]
			return &code
		}
	}
	return nil
}

func firstCapture(patterns []*regexp.Regexp, content string) *string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(content); m != nil {
			value := strings.TrimSpace(m[1])
			if value != "" {
				return &value
			}
		}
	}
	return nil
}

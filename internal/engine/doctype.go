package engine

import "regexp"

// idShape is the capture shape shared by identifier patterns: an opaque
// token of letters, digits and dashes that contains at least one digit.
const idShape = `(\d[A-Z0-9-]*|[A-Z][A-Z0-9-]*\d[A-Z0-9-]*)`

// DocType is a semantic document category within the agreement family.
type DocType string

// Document types. DocTypeUnknown is the classification floor, never a
// registry entry.
const (
	DocTypeMSA           DocType = "MSA"
	DocTypeSOW           DocType = "SOW"
	DocTypeOrderForm     DocType = "ORDER_FORM"
	DocTypePurchaseOrder DocType = "PURCHASE_ORDER"
	DocTypeDeliveryNote  DocType = "DELIVERY_NOTE"
	DocTypeAmendment     DocType = "AMENDMENT"
	DocTypeInvoice       DocType = "INVOICE"
	DocTypeUnknown       DocType = "UNKNOWN"
)

// typeDefinition declares everything the engine knows about one document
// type: how to recognize it in content, how to corroborate the match, how to
// pull its identifier, and how to recognize it from a filename alone. Adding
// a type is a registry entry, not new code.
type typeDefinition struct {
	docType    DocType
	primary    *regexp.Regexp
	supporting []*regexp.Regexp
	ids        []*regexp.Regexp
	filename   *regexp.Regexp
}

// typeRegistry drives classification and identifier extraction. Order is
// significant: it fixes the tie-break order of classifier output and the
// precedence of identifier patterns within a type.
var typeRegistry = []typeDefinition{
	{
		docType: DocTypeMSA,
		primary: regexp.MustCompile(`(?i)\bMASTER\s+SERVICES?\s+AGREEMENT\b|\bMSA\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bEffective\s+Date\b`),
			regexp.MustCompile(`(?i)\bGoverning\s+Law\b`),
			regexp.MustCompile(`(?i)\bTerm\s+and\s+Termination\b`),
			regexp.MustCompile(`(?i)\bConfidentiality\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bMSA\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bMaster\s+Services?\s+Agreement\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bAgreement\s+(?:No\.?|Number)[\s:#]*` + idShape),
		},
		filename: regexp.MustCompile(`(?i)MSA|MASTER`),
	},
	{
		docType: DocTypeSOW,
		primary: regexp.MustCompile(`(?i)\bSTATEMENT\s+OF\s+WORK\b|\bSOW\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDeliverables\b`),
			regexp.MustCompile(`(?i)\bPeriod\s+of\s+Performance\b`),
			regexp.MustCompile(`(?i)\bScope\s+of\s+Work\b`),
			regexp.MustCompile(`(?i)\bEffective\s+Date\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bSOW\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bStatement\s+of\s+Work\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
		},
		filename: regexp.MustCompile(`(?i)SOW|STATEMENT[ _-]OF[ _-]WORK`),
	},
	{
		docType: DocTypeOrderForm,
		primary: regexp.MustCompile(`(?i)\bORDER\s+FORM\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bSubscription\b`),
			regexp.MustCompile(`(?i)\bBilling\s+Frequency\b`),
			regexp.MustCompile(`(?i)\bInitial\s+Term\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bOrder\s+Form\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bOrder\s+(?:No\.?|Number|#)[\s:#]*` + idShape),
		},
		filename: regexp.MustCompile(`(?i)ORDER[ _-]?FORM`),
	},
	{
		docType: DocTypePurchaseOrder,
		primary: regexp.MustCompile(`(?i)\bPURCHASE\s+ORDER\b|\bP\.?\s?O\.?\s*(?:#|No\.?|Number)`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bShip\s+To\b`),
			regexp.MustCompile(`(?i)\bBill\s+To\b`),
			regexp.MustCompile(`(?i)\bPayment\s+Terms\b`),
			regexp.MustCompile(`(?i)\bUnit\s+Price\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bPurchase\s+Order\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bP\.?\s?O\.?\s*#[\s:]*` + idShape),
			regexp.MustCompile(`(?i)\bP\.?\s?O\.?\s*(?:No\.?|Number)[\s:#]*` + idShape),
			regexp.MustCompile(`(?i)\bOrder\s+No\.?[\s:#]*` + idShape),
		},
		filename: regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])PO(?:[^A-Z0-9]|$)|PURCHASE[ _-]?ORDER`),
	},
	{
		docType: DocTypeDeliveryNote,
		primary: regexp.MustCompile(`(?i)\bDELIVERY\s+NOTE\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDelivered\b`),
			regexp.MustCompile(`(?i)\bQuantity\b`),
			regexp.MustCompile(`(?i)\bReceived\s+By\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDelivery\s+Note\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
			regexp.MustCompile(`(?i)\bDN[\s:#-]+` + idShape),
		},
		filename: regexp.MustCompile(`(?i)DELIVERY|(?:^|[^A-Z0-9])DN(?:[^A-Z0-9]|$)`),
	},
	{
		docType: DocTypeAmendment,
		primary: regexp.MustCompile(`(?i)\bAMENDMENT\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bhereby\s+amended\b`),
			regexp.MustCompile(`(?i)\bOriginal\s+Agreement\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bAmendment\s*(?:No\.?|Number|#)?[\s:#]+` + idShape),
		},
		filename: regexp.MustCompile(`(?i)AMEND`),
	},
	{
		docType: DocTypeInvoice,
		primary: regexp.MustCompile(`(?i)\bINVOICE\b`),
		supporting: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bAmount\s+Due\b`),
			regexp.MustCompile(`(?i)\bRemit\s+To\b`),
			regexp.MustCompile(`(?i)\bPayment\s+Terms\b`),
		},
		ids: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bInvoice\s*(?:No\.?|Number|ID|#)?[\s:#]+` + idShape),
		},
		filename: regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])INV(?:[^A-Z0-9]|$)|INVOICE`),
	},
}

func lookupType(t DocType) (*typeDefinition, bool) {
	for i := range typeRegistry {
		if typeRegistry[i].docType == t {
			return &typeRegistry[i], true
		}
	}
	return nil, false
}

// RegisteredTypes returns the document types the engine recognizes, in
// registry order.
func RegisteredTypes() []DocType {
	types := make([]DocType, len(typeRegistry))
	for i, def := range typeRegistry {
		types[i] = def.docType
	}
	return types
}

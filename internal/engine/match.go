package engine

import (
	"slices"
	"strings"
	"sync"
)

// Match tier confidence constants. Tier order is priority order; a weaker
// tier is consulted only when every stronger tier produced zero candidates.
const (
	ConfidencePONumber      = 0.95
	ConfidenceVendorProgram = 0.85
	ConfidenceVendorDate    = 0.80
	ConfidenceProgramOnly   = 0.70
	ConfidenceVendorOnly    = 0.60
)

// matchTier is one rung of the cascade: a method label, its confidence, and
// a candidate function returning the group keys it supports for an invoice.
type matchTier struct {
	method     MatchMethod
	confidence float64
	candidates func(m *Matcher, inv *InvoiceRecord) []string
}

// matchCascade is evaluated top to bottom. There is no fallback rung: an
// invoice no tier claims stays UNMATCHED.
var matchCascade = []matchTier{
	{MethodPONumber, ConfidencePONumber, (*Matcher).poNumberCandidates},
	{MethodVendorProgram, ConfidenceVendorProgram, (*Matcher).vendorProgramCandidates},
	{MethodVendorDate, ConfidenceVendorDate, (*Matcher).vendorDateCandidates},
	{MethodProgramOnly, ConfidenceProgramOnly, (*Matcher).programOnlyCandidates},
	{MethodVendorOnly, ConfidenceVendorOnly, (*Matcher).vendorOnlyCandidates},
}

// Matcher links invoices to agreement groups. It is safe for concurrent use:
// groups and documents are read-only after construction and the normalized
// content cache is lock-guarded.
type Matcher struct {
	groups []AgreementGroup
	docs   map[string]*DocumentRecord

	mu   sync.Mutex
	norm map[string]string
}

// NewMatcher builds a matcher over resolved agreement groups and the document
// records backing them. Groups are evaluated in ascending group key order so
// ambiguous results list candidates deterministically.
func NewMatcher(groups []AgreementGroup, docs []*DocumentRecord) *Matcher {
	ordered := make([]AgreementGroup, len(groups))
	copy(ordered, groups)
	slices.SortFunc(ordered, func(a, b AgreementGroup) int {
		return strings.Compare(a.GroupKey, b.GroupKey)
	})

	byPath := make(map[string]*DocumentRecord, len(docs))
	for _, d := range docs {
		byPath[d.Path] = d
	}
	return &Matcher{
		groups: ordered,
		docs:   byPath,
		norm:   make(map[string]string, len(docs)),
	}
}

// Match runs the cascade for one invoice. The first tier with candidates
// decides the outcome: one candidate is MATCHED, several are AMBIGUOUS with
// the first (by group key) as best and the rest as alternatives. When no
// tier produces a candidate the invoice is UNMATCHED, with the fields that
// failed recorded for review. No tier ever assigns a default contract.
func (m *Matcher) Match(inv *InvoiceRecord) MatchResult {
	for _, tier := range matchCascade {
		keys := tier.candidates(m, inv)
		if len(keys) == 0 {
			continue
		}

		result := MatchResult{
			InvoicePath:     inv.Path,
			Status:          StatusMatched,
			ContractID:      &keys[0],
			MatchMethod:     &tier.method,
			Confidence:      tier.confidence,
			MatchingDetails: m.tierDetails(tier.method, inv),
		}
		if len(keys) > 1 {
			result.Status = StatusAmbiguous
			for _, key := range keys[1:] {
				result.AlternativeMatches = append(result.AlternativeMatches, AlternativeMatch{
					ContractID: key,
					Method:     tier.method,
					Confidence: tier.confidence,
				})
			}
		}
		return result
	}

	return MatchResult{
		InvoicePath: inv.Path,
		Status:      StatusUnmatched,
		Confidence:  0,
		MatchingDetails: map[string]any{
			"po_number":    strptr(inv.PONumber),
			"vendor_name":  strptr(inv.VendorName),
			"program_code": strptr(inv.ProgramCode),
			"invoice_date": inv.InvoiceDate,
		},
	}
}

// normalizedContent memoizes normalized document text per path for the
// duration of the matcher; repeated PO searches across invoices never
// re-normalize the same document.
func (m *Matcher) normalizedContent(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if norm, ok := m.norm[path]; ok {
		return norm
	}
	doc, ok := m.docs[path]
	if !ok {
		m.norm[path] = ""
		return ""
	}
	norm := NormalizeText(doc.RawText)
	m.norm[path] = norm
	return norm
}

func (m *Matcher) poNumberCandidates(inv *InvoiceRecord) []string {
	if inv.PONumber == nil {
		return nil
	}
	po := NormalizeText(*inv.PONumber)
	if po == "" {
		return nil
	}

	var keys []string
	for i := range m.groups {
		g := &m.groups[i]
		if slices.Contains(g.KeyIdentifiers, po) {
			keys = append(keys, g.GroupKey)
			continue
		}
		for _, path := range g.DocumentPaths() {
			if strings.Contains(m.normalizedContent(path), po) {
				keys = append(keys, g.GroupKey)
				break
			}
		}
	}
	return keys
}

func (m *Matcher) vendorProgramCandidates(inv *InvoiceRecord) []string {
	if inv.VendorName == nil || inv.ProgramCode == nil {
		return nil
	}
	var keys []string
	for i := range m.groups {
		g := &m.groups[i]
		if groupHasParty(g, *inv.VendorName) && groupHasProgram(g, *inv.ProgramCode) {
			keys = append(keys, g.GroupKey)
		}
	}
	return keys
}

func (m *Matcher) vendorDateCandidates(inv *InvoiceRecord) []string {
	if inv.VendorName == nil || inv.InvoiceDate == nil {
		return nil
	}
	var keys []string
	for i := range m.groups {
		g := &m.groups[i]
		if g.DateRange == nil {
			continue
		}
		if groupHasParty(g, *inv.VendorName) && g.DateRange.Contains(*inv.InvoiceDate) {
			keys = append(keys, g.GroupKey)
		}
	}
	return keys
}

func (m *Matcher) programOnlyCandidates(inv *InvoiceRecord) []string {
	if inv.ProgramCode == nil {
		return nil
	}
	var keys []string
	for i := range m.groups {
		if groupHasProgram(&m.groups[i], *inv.ProgramCode) {
			keys = append(keys, m.groups[i].GroupKey)
		}
	}
	return keys
}

func (m *Matcher) vendorOnlyCandidates(inv *InvoiceRecord) []string {
	if inv.VendorName == nil {
		return nil
	}
	var keys []string
	for i := range m.groups {
		if groupHasParty(&m.groups[i], *inv.VendorName) {
			keys = append(keys, m.groups[i].GroupKey)
		}
	}
	return keys
}

// groupHasParty compares the invoice vendor against group parties in
// normalized form, accepting containment either way so "Acme" matches
// "Acme Corp International".
func groupHasParty(g *AgreementGroup, vendor string) bool {
	v := NormalizeParty(vendor)
	if v == "" {
		return false
	}
	for _, party := range g.Parties {
		if party == v || strings.Contains(party, v) || strings.Contains(v, party) {
			return true
		}
	}
	return false
}

// groupHasProgram checks the invoice program code against the group's program
// codes and key identifiers.
func groupHasProgram(g *AgreementGroup, code string) bool {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return false
	}
	return slices.Contains(g.ProgramCodes, c) || slices.Contains(g.KeyIdentifiers, c)
}

// tierDetails records the invoice fields the winning tier relied on.
func (m *Matcher) tierDetails(method MatchMethod, inv *InvoiceRecord) map[string]any {
	details := map[string]any{}
	switch method {
	case MethodPONumber:
		details["po_number"] = strptr(inv.PONumber)
	case MethodVendorProgram:
		details["vendor_name"] = strptr(inv.VendorName)
		details["program_code"] = strptr(inv.ProgramCode)
	case MethodVendorDate:
		details["vendor_name"] = strptr(inv.VendorName)
		details["invoice_date"] = inv.InvoiceDate
	case MethodProgramOnly:
		details["program_code"] = strptr(inv.ProgramCode)
	case MethodVendorOnly:
		details["vendor_name"] = strptr(inv.VendorName)
	}
	return details
}

func strptr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Package rules derives per-contract billing and payment rules for resolved
// agreement groups, and verifies the document hierarchy inside each group.
// Hierarchy findings are advisory data for reviewers, never errors.
package rules

import (
	"time"

	"github.com/accordhq/accord/internal/engine"
)

// Rule is one extracted contractual obligation relevant to invoice review.
type Rule struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Source   string `json:"source,omitempty"`
}

// Inconsistency flags a structural irregularity in a group's document set.
type Inconsistency struct {
	Severity       string `json:"severity"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
}

// Hierarchy maps a group's documents onto the expected agreement structure.
type Hierarchy struct {
	MSA            *string  `json:"msa"`
	SOW            *string  `json:"sow"`
	OrderForms     []string `json:"order_forms"`
	PurchaseOrders []string `json:"purchase_orders"`
	DeliveryNotes  []string `json:"delivery_notes"`
	Amendments     []string `json:"amendments"`
}

// ContractRules is the rule extraction result for one agreement group.
type ContractRules struct {
	ContractID      string          `json:"contract_id"`
	Parties         []string        `json:"parties"`
	ProgramCodes    []string        `json:"program_codes"`
	SourceDocuments []string        `json:"source_documents"`
	ExtractedAt     time.Time       `json:"extracted_at"`
	Rules           []Rule          `json:"rules"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
	Hierarchy       Hierarchy       `json:"hierarchy"`
}

// BuildHierarchy slots a group's member documents into the agreement
// structure by their primary type.
func BuildHierarchy(docs []*engine.DocumentRecord) Hierarchy {
	var h Hierarchy
	for _, doc := range docs {
		primary, ok := doc.PrimaryType()
		if !ok {
			continue
		}
		switch primary {
		case engine.DocTypeMSA:
			if h.MSA == nil {
				name := doc.Filename
				h.MSA = &name
			}
		case engine.DocTypeSOW:
			if h.SOW == nil {
				name := doc.Filename
				h.SOW = &name
			}
		case engine.DocTypeOrderForm:
			h.OrderForms = append(h.OrderForms, doc.Filename)
		case engine.DocTypePurchaseOrder:
			h.PurchaseOrders = append(h.PurchaseOrders, doc.Filename)
		case engine.DocTypeDeliveryNote:
			h.DeliveryNotes = append(h.DeliveryNotes, doc.Filename)
		case engine.DocTypeAmendment:
			h.Amendments = append(h.Amendments, doc.Filename)
		}
	}
	return h
}

// VerifyHierarchy reports structural irregularities: purchase orders with no
// governing MSA or SOW, and SOWs with no MSA above them.
func VerifyHierarchy(h Hierarchy) []Inconsistency {
	var found []Inconsistency

	if len(h.PurchaseOrders) > 0 && h.MSA == nil && h.SOW == nil {
		found = append(found, Inconsistency{
			Severity:       "warning",
			Issue:          "Purchase Order exists without MSA or SOW",
			Recommendation: "Verify this is a PO-based contract",
		})
	}
	if h.SOW != nil && h.MSA == nil {
		found = append(found, Inconsistency{
			Severity:       "warning",
			Issue:          "SOW exists without MSA",
			Recommendation: "Verify MSA is not needed for this contract",
		})
	}

	return found
}

package engine

import (
	"fmt"
	"strings"
)

// Identifier extraction confidence constants. Confidence tracks how the
// type itself was classified: an identifier found for the document's primary
// type is stronger evidence than one found for a referenced type.
const (
	ConfidenceIDPrimary   = 0.95
	ConfidenceIDSecondary = 0.90
)

// ExtractIdentifier pulls the identifier for one detected type out of text.
// Patterns are tried in registry order; the first capture wins. Identifiers
// are opaque strings, upper-cased and trimmed, never parsed further. A miss
// returns a nil ID at zero confidence; only an unregistered type is an error.
func ExtractIdentifier(text string, docType DocType, primary bool) (ExtractedID, error) {
	def, ok := lookupType(docType)
	if !ok {
		return ExtractedID{}, fmt.Errorf("%w: %s", ErrUnknownType, docType)
	}

	for _, pattern := range def.ids {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		id := strings.ToUpper(strings.TrimSpace(m[1]))
		if id == "" {
			continue
		}
		confidence := ConfidenceIDSecondary
		if primary {
			confidence = ConfidenceIDPrimary
		}
		return ExtractedID{Type: docType, ID: &id, Confidence: confidence}, nil
	}

	return ExtractedID{Type: docType, ID: nil, Confidence: 0}, nil
}

// ExtractIdentifiers runs identifier extraction for every detected type,
// preserving detection order and each detection's primacy.
func ExtractIdentifiers(text string, detected []DetectedType) ([]ExtractedID, error) {
	ids := make([]ExtractedID, 0, len(detected))
	for _, d := range detected {
		if d.Type == DocTypeUnknown {
			continue
		}
		extracted, err := ExtractIdentifier(text, d.Type, d.Primary)
		if err != nil {
			return nil, err
		}
		ids = append(ids, extracted)
	}
	return ids, nil
}

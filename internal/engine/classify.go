package engine

import (
	"fmt"
	"sort"
)

// Classification constants. Confidence is ordinal evidence strength, not a
// probability.
const (
	primaryWindow = 1000

	ConfidenceContentPrimary   = 0.95
	ConfidenceContentSecondary = 0.80
	ConfidenceSupportingBoost  = 0.02
	ConfidenceContentCap       = 0.99
	ConfidenceFilenameOnly     = 0.60
)

// ClassifyDocument detects every document type evidenced in text, reporting
// each as primary or referenced. A document is primary for a type when the
// type's signature pattern matches within the opening window of the text;
// matches later in the text are references to other documents. When content
// yields nothing, the filename patterns are consulted at reduced confidence;
// when those also fail, the single result is UNKNOWN at zero confidence.
//
// Output order is deterministic: primary detections first, then descending
// confidence, then registry order.
func ClassifyDocument(text, filename string) []DetectedType {
	var detected []DetectedType

	for i := range typeRegistry {
		def := &typeRegistry[i]
		loc := def.primary.FindStringIndex(text)
		if loc == nil {
			continue
		}

		primary := loc[0] < primaryWindow
		confidence := ConfidenceContentSecondary
		if primary {
			confidence = ConfidenceContentPrimary
		}
		for _, sup := range def.supporting {
			if sup.MatchString(text) {
				confidence += ConfidenceSupportingBoost
			}
		}
		confidence = min(confidence, ConfidenceContentCap)

		detected = append(detected, DetectedType{
			Type:       def.docType,
			Primary:    primary,
			Confidence: confidence,
			Evidence:   fmt.Sprintf("content match %q at offset %d", text[loc[0]:loc[1]], loc[0]),
		})
	}

	if len(detected) == 0 {
		for i := range typeRegistry {
			def := &typeRegistry[i]
			if def.filename.MatchString(filename) {
				detected = append(detected, DetectedType{
					Type:       def.docType,
					Primary:    true,
					Confidence: ConfidenceFilenameOnly,
					Evidence:   fmt.Sprintf("filename match %q", filename),
				})
				break
			}
		}
	}

	if len(detected) == 0 {
		return []DetectedType{{
			Type:       DocTypeUnknown,
			Primary:    true,
			Confidence: 0,
			Evidence:   "no content or filename signal",
		}}
	}

	sort.SliceStable(detected, func(i, j int) bool {
		if detected[i].Primary != detected[j].Primary {
			return detected[i].Primary
		}
		return detected[i].Confidence > detected[j].Confidence
	})
	return detected
}

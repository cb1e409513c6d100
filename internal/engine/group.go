package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Grouping constants. A mutual identifier citation is near-certain linkage;
// party overlap corroborated by shared naming is a weaker, heuristic signal.
const (
	ConfidenceCrossReference = 0.95
	ConfidencePartyNaming    = 0.75

	partyOverlapThreshold = 0.8
)

var groupKeySanitizeRe = regexp.MustCompile(`[^A-Z0-9]+`)

// GroupDocuments partitions agreement-family documents into agreement groups.
//
// Documents are visited in ascending path order. Each document with a known
// primary type that no earlier group has claimed seeds a group and claims
// every still-unclaimed document linked to it, strongest signal first:
// mutual cross-reference (each document's extracted identifiers appear in the
// other's text), then party overlap above the threshold corroborated by a
// shared filename token. Claims are exclusive and first-claim-wins, tracked
// in an explicit ownership map. Documents claimed by nothing become
// singleton groups.
//
// The result is a strict partition: every input document appears in exactly
// one group. A violation is a defect in the grouper itself and fails the call.
func GroupDocuments(docs []*DocumentRecord) ([]AgreementGroup, error) {
	ordered := make([]*DocumentRecord, len(docs))
	copy(ordered, docs)
	slices.SortFunc(ordered, func(a, b *DocumentRecord) int {
		return strings.Compare(a.Path, b.Path)
	})

	normalized := make(map[string]string, len(ordered))
	for _, d := range ordered {
		normalized[d.Path] = NormalizeText(d.RawText)
	}

	ownership := make(map[string]string, len(ordered))
	usedKeys := make(map[string]bool)
	var groups []AgreementGroup

	newGroup := func(seed *DocumentRecord) *AgreementGroup {
		key := groupKey(seed, usedKeys)
		ownership[seed.Path] = key
		groups = append(groups, AgreementGroup{
			GroupKey:        key,
			PrimaryDocument: seed.Path,
		})
		return &groups[len(groups)-1]
	}

	for _, seed := range ordered {
		if _, claimed := ownership[seed.Path]; claimed {
			continue
		}
		primary, ok := seed.PrimaryType()
		if !ok || primary == DocTypeUnknown {
			continue
		}

		group := newGroup(seed)
		for _, candidate := range ordered {
			if _, claimed := ownership[candidate.Path]; claimed {
				continue
			}
			related, linked := linkDocuments(seed, candidate, normalized)
			if !linked {
				continue
			}
			ownership[candidate.Path] = group.GroupKey
			group.RelatedDocuments = append(group.RelatedDocuments, related)
		}
	}

	for _, doc := range ordered {
		if _, claimed := ownership[doc.Path]; !claimed {
			newGroup(doc)
		}
	}

	for i := range groups {
		poolGroupSignals(&groups[i], ordered)
	}
	slices.SortFunc(groups, func(a, b AgreementGroup) int {
		return strings.Compare(a.GroupKey, b.GroupKey)
	})

	if err := verifyPartition(ordered, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// linkDocuments evaluates the relationship signals between a group seed and a
// candidate, strongest first.
func linkDocuments(seed, candidate *DocumentRecord, normalized map[string]string) (RelatedDocument, bool) {
	if id, ok := mutualCrossReference(seed, candidate, normalized); ok {
		return RelatedDocument{
			Path:       candidate.Path,
			Kind:       RelationCrossReference,
			Confidence: ConfidenceCrossReference,
			Evidence:   fmt.Sprintf("mutual cross-reference via identifier %q", id),
		}, true
	}

	overlap := jaccard(seed.Parties, candidate.Parties)
	if overlap > partyOverlapThreshold {
		if token, ok := sharedToken(seed.FilenameTokens, candidate.FilenameTokens); ok {
			return RelatedDocument{
				Path:       candidate.Path,
				Kind:       RelationPartyNaming,
				Confidence: ConfidencePartyNaming,
				Evidence:   fmt.Sprintf("party overlap %.2f, shared filename token %q", overlap, token),
			}, true
		}
	}

	return RelatedDocument{}, false
}

// mutualCrossReference reports whether each document's extracted identifiers
// appear in the other's text. Shared identifiers satisfy both directions.
func mutualCrossReference(a, b *DocumentRecord, normalized map[string]string) (string, bool) {
	idA, okA := identifierInText(a.Identifiers(), normalized[b.Path])
	if !okA {
		return "", false
	}
	if _, okB := identifierInText(b.Identifiers(), normalized[a.Path]); !okB {
		return "", false
	}
	return idA, true
}

func identifierInText(ids []string, norm string) (string, bool) {
	for _, id := range ids {
		if strings.Contains(norm, id) {
			return id, true
		}
	}
	return "", false
}

func sharedToken(a, b []string) (string, bool) {
	for _, t := range a {
		if slices.Contains(b, t) {
			return t, true
		}
	}
	return "", false
}

// groupKey derives a stable human-readable key from the seed document: its
// primary type plus its strongest identifier, falling back to the filename.
// Collisions get a numeric suffix so keys stay unique within a batch.
func groupKey(seed *DocumentRecord, used map[string]bool) string {
	primary, _ := seed.PrimaryType()
	part := strings.TrimSuffix(seed.Filename, filepath.Ext(seed.Filename))
	for _, e := range seed.ExtractedIDs {
		if e.Type == primary && e.ID != nil {
			part = *e.ID
			break
		}
	}

	base := string(primary) + "-" + part
	base = strings.Trim(groupKeySanitizeRe.ReplaceAllString(strings.ToUpper(base), "-"), "-")

	key := base
	for n := 2; used[key]; n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}
	used[key] = true
	return key
}

// poolGroupSignals aggregates member identifiers, parties, program codes and
// the date range onto the group.
func poolGroupSignals(group *AgreementGroup, docs []*DocumentRecord) {
	members := make(map[string]bool, len(group.RelatedDocuments)+1)
	for _, path := range group.DocumentPaths() {
		members[path] = true
	}

	var ids, parties, codes []string
	var rng *DateRange
	for _, doc := range docs {
		if !members[doc.Path] {
			continue
		}
		ids = append(ids, doc.Identifiers()...)
		parties = append(parties, doc.Parties...)
		if doc.ProgramCode != nil {
			codes = append(codes, *doc.ProgramCode)
		}
		for _, date := range doc.Dates {
			if rng == nil {
				rng = &DateRange{Start: date, End: date}
				continue
			}
			if date.Before(rng.Start) {
				rng.Start = date
			}
			if date.After(rng.End) {
				rng.End = date
			}
		}
	}

	slices.Sort(ids)
	slices.Sort(parties)
	slices.Sort(codes)
	group.KeyIdentifiers = slices.Compact(ids)
	group.Parties = slices.Compact(parties)
	group.ProgramCodes = slices.Compact(codes)
	group.DateRange = rng
}

// verifyPartition asserts that groups form a strict partition of docs.
func verifyPartition(docs []*DocumentRecord, groups []AgreementGroup) error {
	seen := make(map[string]string, len(docs))
	for _, g := range groups {
		for _, path := range g.DocumentPaths() {
			if prior, dup := seen[path]; dup {
				return fmt.Errorf("%w: %s in groups %s and %s", ErrPartitionViolation, path, prior, g.GroupKey)
			}
			seen[path] = g.GroupKey
		}
	}
	for _, d := range docs {
		if _, ok := seen[d.Path]; !ok {
			return fmt.Errorf("%w: %s unassigned", ErrPartitionViolation, d.Path)
		}
	}
	if len(seen) != len(docs) {
		return fmt.Errorf("%w: %d documents in, %d grouped", ErrPartitionViolation, len(docs), len(seen))
	}
	return nil
}

package engine

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Text and filename analysis shared by grouping and matching: party name
// recovery, filename tokenization, program code and date extraction. All
// helpers are pure and deterministic.

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	betweenPartiesRe = regexp.MustCompile(`(?i)\bbetween\s+(.{2,80}?)\s+and\s+(.{2,80}?)(?:[,.;(\n]|$)`)
	companyNameRe    = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&.']*(?:\s+[A-Z][A-Za-z0-9&.']*){0,3}\s+(?:Inc|Incorporated|LLC|Ltd|Limited|Corp|Corporation|GmbH|AG|PLC|Co|Company)\b\.?)`)

	// Filename signals are matched per token, not with \b anchors:
	// underscores count as word characters, so \b never fires inside
	// PO_4500123456-style names.
	programCodeRe  = regexp.MustCompile(`^[A-Z]{2,4}$`)
	filenameDateRe = regexp.MustCompile(`(\d{4})[ _-](\d{2})[ _-](\d{2})`)
	textDateRe     = regexp.MustCompile(`\b(\d{4})[-/](\d{2})[-/](\d{2})\b`)
	yearRe         = regexp.MustCompile(`^20\d\d$`)

	tokenSplitRe = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// corporateSuffixes are dropped during party normalization so that
// "Acme Corp" and "Acme Corporation" compare equal.
var corporateSuffixes = map[string]bool{
	"INC": true, "INCORPORATED": true, "LLC": true, "LTD": true,
	"LIMITED": true, "CORP": true, "CORPORATION": true, "GMBH": true,
	"AG": true, "PLC": true, "CO": true, "COMPANY": true,
}

// structuralTokens are filename tokens that describe document structure
// rather than the agreement itself and carry no grouping signal.
var structuralTokens = map[string]bool{
	"MSA": true, "SOW": true, "PO": true, "DN": true, "INV": true,
	"PURCHASE": true, "ORDER": true, "FORM": true, "DELIVERY": true,
	"NOTE": true, "MASTER": true, "SERVICE": true, "SERVICES": true,
	"AGREEMENT": true, "STATEMENT": true, "WORK": true, "INVOICE": true,
	"AMENDMENT": true, "AMENDED": true, "CONTRACT": true, "FINAL": true,
	"DRAFT": true, "COPY": true, "SIGNED": true, "EXECUTED": true,
	"THE": true, "FOR": true, "AND": true, "OF": true,
	"DOC": true, "DOCX": true, "PDF": true, "TXT": true,
}

// programCodeStopwords are common uppercase words and type abbreviations
// that must never be mistaken for a program code.
var programCodeStopwords = map[string]bool{
	"MSA": true, "SOW": true, "PO": true, "DN": true, "INV": true,
	"PDF": true, "DOC": true, "TXT": true, "THE": true, "FOR": true,
	"AND": true, "NEW": true, "OLD": true, "FY": true, "USD": true,
	"EUR": true, "GBP": true,
}

// NormalizeText upper-cases text and collapses all whitespace runs to single
// spaces. Identifier content searches run against normalized text so layout
// differences never hide a reference.
func NormalizeText(text string) string {
	return strings.ToUpper(whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " "))
}

// NormalizeParty reduces a raw party string to a comparable form: upper-case,
// punctuation stripped, corporate suffixes dropped.
func NormalizeParty(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '&':
			return r
		default:
			return ' '
		}
	}, raw)

	var kept []string
	for _, field := range strings.Fields(strings.ToUpper(cleaned)) {
		if corporateSuffixes[field] {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// ExtractParties recovers party names from agreement text using the
// "between X and Y" preamble and corporate-suffix name forms. Results are
// normalized, sorted and deduplicated.
func ExtractParties(text string) []string {
	var parties []string

	for _, m := range betweenPartiesRe.FindAllStringSubmatch(text, -1) {
		for _, raw := range m[1:] {
			if p := NormalizeParty(raw); p != "" && len(p) <= 60 {
				parties = append(parties, p)
			}
		}
	}
	for _, m := range companyNameRe.FindAllStringSubmatch(text, -1) {
		if p := NormalizeParty(m[1]); p != "" {
			parties = append(parties, p)
		}
	}

	slices.Sort(parties)
	return slices.Compact(parties)
}

// FilenameTokens splits a filename into upper-cased tokens, dropping the
// extension and structural vocabulary. Surviving tokens (project names, party
// fragments, date fragments) are the naming signal used for grouping.
func FilenameTokens(filename string) []string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	var tokens []string
	for _, t := range tokenSplitRe.Split(base, -1) {
		t = strings.ToUpper(t)
		if len(t) < 2 || structuralTokens[t] {
			continue
		}
		tokens = append(tokens, t)
	}

	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// ExtractProgramCode returns the first short all-caps token in a filename
// that is not structural vocabulary, or nil when none exists.
func ExtractProgramCode(filename string) *string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	for _, t := range tokenSplitRe.Split(base, -1) {
		if programCodeRe.MatchString(t) && !programCodeStopwords[t] {
			code := t
			return &code
		}
	}
	return nil
}

// ExtractDates collects dates evidenced by a document: full dates from the
// filename and text, and bare years from the filename expanded to year
// bounds. Results are sorted and deduplicated.
func ExtractDates(filename, text string) []time.Time {
	var dates []time.Time

	add := func(year, month, day string) {
		if t, err := time.Parse("2006-01-02", year+"-"+month+"-"+day); err == nil {
			dates = append(dates, t)
		}
	}

	matched := false
	for _, m := range filenameDateRe.FindAllStringSubmatch(filename, -1) {
		add(m[1], m[2], m[3])
		matched = true
	}
	for _, m := range textDateRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], m[3])
	}
	if !matched {
		// A bare year in a filename still bounds the agreement period.
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		for _, tok := range tokenSplitRe.Split(base, -1) {
			if !yearRe.MatchString(tok) {
				continue
			}
			if t, err := time.Parse("2006", tok); err == nil {
				dates = append(dates, t, t.AddDate(1, 0, -1))
			}
		}
	}

	slices.SortFunc(dates, time.Time.Compare)
	return slices.Compact(dates)
}

// jaccard computes set overlap between two normalized string sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

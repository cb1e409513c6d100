package resolutions

import (
	"encoding/json"
	"net/url"

	"github.com/accordhq/accord/pkg/query"
	"github.com/accordhq/accord/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "resolution_runs", "r").
	Project("id", "ID").
	Project("status", "Status").
	Project("document_count", "DocumentCount").
	Project("invoice_count", "InvoiceCount").
	Project("group_count", "GroupCount").
	Project("matched_count", "MatchedCount").
	Project("ambiguous_count", "AmbiguousCount").
	Project("unmatched_count", "UnmatchedCount").
	Project("error_count", "ErrorCount").
	Project("failure", "Failure").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
type Filters struct {
	Status *string `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.Status,
		&r.DocumentCount,
		&r.InvoiceCount,
		&r.GroupCount,
		&r.MatchedCount,
		&r.AmbiguousCount,
		&r.UnmatchedCount,
		&r.ErrorCount,
		&r.Failure,
		&r.StartedAt,
		&r.CompletedAt,
	)
	return r, err
}

func scanGroup(s repository.Scanner) (Group, error) {
	var g Group
	var ids, parties, codes []byte
	if err := s.Scan(
		&g.ID,
		&g.RunID,
		&g.GroupKey,
		&g.PrimaryPath,
		&ids,
		&parties,
		&codes,
		&g.DateStart,
		&g.DateEnd,
	); err != nil {
		return g, err
	}
	if err := unmarshalColumn(ids, &g.KeyIdentifiers); err != nil {
		return g, err
	}
	if err := unmarshalColumn(parties, &g.Parties); err != nil {
		return g, err
	}
	return g, unmarshalColumn(codes, &g.ProgramCodes)
}

func scanMatch(s repository.Scanner) (Match, error) {
	var m Match
	var details, alternatives []byte
	if err := s.Scan(
		&m.ID,
		&m.RunID,
		&m.InvoicePath,
		&m.Status,
		&m.ContractID,
		&m.MatchMethod,
		&m.Confidence,
		&details,
		&alternatives,
	); err != nil {
		return m, err
	}
	if err := unmarshalColumn(details, &m.Details); err != nil {
		return m, err
	}
	return m, unmarshalColumn(alternatives, &m.Alternatives)
}

func scanRunError(s repository.Scanner) (RunError, error) {
	var e RunError
	err := s.Scan(&e.ID, &e.RunID, &e.Path, &e.Stage, &e.Message)
	return e, err
}

func scanAuditRecord(s repository.Scanner) (AuditRecord, error) {
	var a AuditRecord
	var details []byte
	if err := s.Scan(
		&a.ID,
		&a.RunID,
		&a.Stage,
		&a.Subject,
		&a.Decision,
		&a.Confidence,
		&details,
		&a.RecordedAt,
	); err != nil {
		return a, err
	}
	return a, unmarshalColumn(details, &a.Details)
}

func scanRuleSet(s repository.Scanner) (ContractRuleSet, error) {
	var rs ContractRuleSet
	var parties, codes, sources, ruleList, inconsistencies, hierarchy []byte
	if err := s.Scan(
		&rs.ID,
		&rs.RunID,
		&rs.ContractID,
		&parties,
		&codes,
		&sources,
		&ruleList,
		&inconsistencies,
		&hierarchy,
		&rs.ExtractedAt,
	); err != nil {
		return rs, err
	}
	for _, col := range []struct {
		data []byte
		dest any
	}{
		{parties, &rs.Parties},
		{codes, &rs.ProgramCodes},
		{sources, &rs.SourceDocuments},
		{ruleList, &rs.Rules},
		{inconsistencies, &rs.Inconsistencies},
		{hierarchy, &rs.Hierarchy},
	} {
		if err := unmarshalColumn(col.data, col.dest); err != nil {
			return rs, err
		}
	}
	return rs, nil
}

// unmarshalColumn decodes a jsonb column; NULL columns leave the
// destination at its zero value.
func unmarshalColumn(data []byte, dest any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func marshalColumn(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

package resolutions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/accordhq/accord/internal/engine"
	"github.com/accordhq/accord/internal/invoices"
	"github.com/accordhq/accord/pkg/repository"
)

// Trigger executes a full resolution run over every registered document and
// invoice. The run row is created up front so failed runs remain visible;
// batch output is persisted in a single transaction once the engine
// completes.
func (r *repo) Trigger(ctx context.Context) (*RunDetail, error) {
	docs, err := r.documents.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	invs, err := r.invoices.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	run, err := r.insertRun(ctx, len(docs), len(invs))
	if err != nil {
		return nil, err
	}
	r.logger.Info("resolution run started",
		"run_id", run.ID,
		"documents", len(docs),
		"invoices", len(invs),
	)

	seeds := make([]engine.DocumentSeed, len(docs))
	seedsByPath := make(map[string]engine.DocumentSeed, len(docs))
	for i, d := range docs {
		seed := engine.DocumentSeed{
			Path:     d.StorageKey,
			Filename: d.Filename,
			RawText:  d.ExtractedText,
		}
		seeds[i] = seed
		seedsByPath[seed.Path] = seed
	}

	records := make([]*engine.InvoiceRecord, len(invs))
	for i, inv := range invs {
		records[i] = invoiceRecord(inv)
	}

	collector := engine.NewCollectingRecorder()
	pipeline := engine.NewPipeline(
		r.logger,
		engine.MultiRecorder(collector, engine.NewSlogRecorder(r.logger)),
		r.workers,
	)

	result, err := pipeline.Run(ctx, seeds, records)
	if err != nil {
		r.failRun(ctx, run.ID, err)
		return nil, err
	}

	ruleSets := r.extractRules(ctx, run.ID, result.Groups, seedsByPath)

	detail, err := r.persistResult(ctx, run.ID, result, collector.Events(), ruleSets)
	if err != nil {
		r.failRun(ctx, run.ID, err)
		return nil, err
	}

	r.logger.Info("resolution run complete",
		"run_id", run.ID,
		"groups", detail.Run.GroupCount,
		"matched", detail.Run.MatchedCount,
		"ambiguous", detail.Run.AmbiguousCount,
		"unmatched", detail.Run.UnmatchedCount,
		"errors", detail.Run.ErrorCount,
	)
	return detail, nil
}

func invoiceRecord(inv invoices.Invoice) *engine.InvoiceRecord {
	return &engine.InvoiceRecord{
		Path:        inv.StorageKey,
		Filename:    inv.Filename,
		PONumber:    inv.PONumber,
		VendorName:  inv.Vendor,
		ProgramCode: inv.ProgramCode,
		InvoiceDate: inv.InvoiceDate,
		RawText:     inv.ExtractedText,
	}
}

// extractRules runs rule extraction per group. Extraction failures degrade
// a run, never fail it.
func (r *repo) extractRules(
	ctx context.Context,
	runID uuid.UUID,
	groups []engine.AgreementGroup,
	seedsByPath map[string]engine.DocumentSeed,
) []ContractRuleSet {
	if r.extractor == nil {
		return nil
	}

	sets := make([]ContractRuleSet, 0, len(groups))
	for _, g := range groups {
		var members []*engine.DocumentRecord
		for _, path := range g.DocumentPaths() {
			seed, ok := seedsByPath[path]
			if !ok {
				continue
			}
			record, err := engine.BuildRecord(seed)
			if err != nil {
				continue
			}
			members = append(members, record)
		}

		extracted, err := r.extractor.Extract(ctx, g, members)
		if err != nil {
			r.logger.Warn("rule extraction failed",
				"run_id", runID,
				"group_key", g.GroupKey,
				"error", err,
			)
			continue
		}

		sets = append(sets, ContractRuleSet{
			ID:              uuid.New(),
			RunID:           runID,
			ContractID:      extracted.ContractID,
			Parties:         extracted.Parties,
			ProgramCodes:    extracted.ProgramCodes,
			SourceDocuments: extracted.SourceDocuments,
			Rules:           extracted.Rules,
			Inconsistencies: extracted.Inconsistencies,
			Hierarchy:       extracted.Hierarchy,
			ExtractedAt:     extracted.ExtractedAt,
		})
	}
	return sets
}

func (r *repo) persistResult(
	ctx context.Context,
	runID uuid.UUID,
	result *engine.BatchResult,
	events []engine.AuditEvent,
	ruleSets []ContractRuleSet,
) (*RunDetail, error) {
	var matched, ambiguous, unmatched int
	for _, m := range result.Matches {
		switch m.Status {
		case engine.StatusMatched:
			matched++
		case engine.StatusAmbiguous:
			ambiguous++
		default:
			unmatched++
		}
	}

	detail, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (RunDetail, error) {
		var detail RunDetail

		for _, g := range result.Groups {
			persisted, err := insertGroup(ctx, tx, runID, g)
			if err != nil {
				return detail, err
			}
			detail.Groups = append(detail.Groups, *persisted)
		}

		for _, m := range result.Matches {
			persisted, err := insertMatch(ctx, tx, runID, m)
			if err != nil {
				return detail, err
			}
			detail.Matches = append(detail.Matches, *persisted)
		}

		for _, e := range result.Errors {
			persisted, err := insertError(ctx, tx, runID, e)
			if err != nil {
				return detail, err
			}
			detail.Errors = append(detail.Errors, *persisted)
		}

		if err := insertAuditEvents(ctx, tx, runID, events); err != nil {
			return detail, err
		}
		if err := insertRuleSets(ctx, tx, ruleSets); err != nil {
			return detail, err
		}

		q := `
			UPDATE resolution_runs
			SET status = $2, group_count = $3, matched_count = $4, ambiguous_count = $5, unmatched_count = $6, error_count = $7, completed_at = $8
			WHERE id = $1
			RETURNING ` + runColumns

		args := []any{
			runID,
			StatusCompleted,
			len(result.Groups),
			matched,
			ambiguous,
			unmatched,
			len(result.Errors),
			time.Now().UTC(),
		}

		run, err := repository.QueryOne(ctx, tx, q, args, scanRun)
		if err != nil {
			return detail, fmt.Errorf("complete resolution run: %w", err)
		}
		detail.Run = run
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func insertGroup(ctx context.Context, tx *sql.Tx, runID uuid.UUID, g engine.AgreementGroup) (*Group, error) {
	id := uuid.New()

	ids, err := marshalColumn(g.KeyIdentifiers)
	if err != nil {
		return nil, err
	}
	parties, err := marshalColumn(g.Parties)
	if err != nil {
		return nil, err
	}
	codes, err := marshalColumn(g.ProgramCodes)
	if err != nil {
		return nil, err
	}

	var start, end *time.Time
	if g.DateRange != nil {
		start, end = &g.DateRange.Start, &g.DateRange.End
	}

	q := `
		INSERT INTO agreement_groups(id, run_id, group_key, primary_path, key_identifiers, parties, program_codes, date_start, date_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := tx.ExecContext(ctx, q,
		id, runID, g.GroupKey, g.PrimaryDocument, ids, parties, codes, start, end,
	); err != nil {
		return nil, fmt.Errorf("insert agreement group %s: %w", g.GroupKey, err)
	}

	members := []GroupDocument{{
		Path:       g.PrimaryDocument,
		Relation:   RelationPrimary,
		Confidence: 1.0,
	}}
	for _, rd := range g.RelatedDocuments {
		members = append(members, GroupDocument{
			Path:       rd.Path,
			Relation:   string(rd.Kind),
			Confidence: rd.Confidence,
			Evidence:   rd.Evidence,
		})
	}

	memberQ := `
		INSERT INTO group_documents(group_id, path, relation, confidence, evidence, position)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for pos, m := range members {
		if _, err := tx.ExecContext(ctx, memberQ,
			id, m.Path, m.Relation, m.Confidence, m.Evidence, pos,
		); err != nil {
			return nil, fmt.Errorf("insert group document %s: %w", m.Path, err)
		}
	}

	return &Group{
		ID:             id,
		RunID:          runID,
		GroupKey:       g.GroupKey,
		PrimaryPath:    g.PrimaryDocument,
		KeyIdentifiers: g.KeyIdentifiers,
		Parties:        g.Parties,
		ProgramCodes:   g.ProgramCodes,
		DateStart:      start,
		DateEnd:        end,
		Documents:      members,
	}, nil
}

func insertMatch(ctx context.Context, tx *sql.Tx, runID uuid.UUID, m engine.MatchResult) (*Match, error) {
	id := uuid.New()

	details, err := marshalColumn(m.MatchingDetails)
	if err != nil {
		return nil, err
	}
	alternatives, err := marshalColumn(m.AlternativeMatches)
	if err != nil {
		return nil, err
	}

	var method *string
	if m.MatchMethod != nil {
		s := string(*m.MatchMethod)
		method = &s
	}

	q := `
		INSERT INTO match_results(id, run_id, invoice_path, status, contract_id, match_method, confidence, details, alternatives)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := tx.ExecContext(ctx, q,
		id, runID, m.InvoicePath, string(m.Status), m.ContractID, method, m.Confidence, details, alternatives,
	); err != nil {
		return nil, fmt.Errorf("insert match result %s: %w", m.InvoicePath, err)
	}

	return &Match{
		ID:           id,
		RunID:        runID,
		InvoicePath:  m.InvoicePath,
		Status:       string(m.Status),
		ContractID:   m.ContractID,
		MatchMethod:  method,
		Confidence:   m.Confidence,
		Details:      m.MatchingDetails,
		Alternatives: m.AlternativeMatches,
	}, nil
}

func insertError(ctx context.Context, tx *sql.Tx, runID uuid.UUID, e engine.ItemError) (*RunError, error) {
	id := uuid.New()

	q := `
		INSERT INTO resolution_errors(id, run_id, path, stage, message)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctx, q, id, runID, e.Path, e.Stage, e.Message); err != nil {
		return nil, fmt.Errorf("insert resolution error %s: %w", e.Path, err)
	}

	return &RunError{
		ID:      id,
		RunID:   runID,
		Path:    e.Path,
		Stage:   e.Stage,
		Message: e.Message,
	}, nil
}

func insertAuditEvents(ctx context.Context, tx *sql.Tx, runID uuid.UUID, events []engine.AuditEvent) error {
	q := `
		INSERT INTO audit_events(id, run_id, stage, subject, decision, confidence, details, recorded_at, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i, e := range events {
		details, err := marshalColumn(e.Details)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q,
			uuid.New(), runID, e.Stage, e.Subject, e.Decision, e.Confidence, details, e.RecordedAt, i,
		); err != nil {
			return fmt.Errorf("insert audit event %s: %w", e.Subject, err)
		}
	}
	return nil
}

func insertRuleSets(ctx context.Context, tx *sql.Tx, sets []ContractRuleSet) error {
	q := `
		INSERT INTO contract_rules(id, run_id, contract_id, parties, program_codes, source_documents, rules, inconsistencies, hierarchy, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, set := range sets {
		cols := make([][]byte, 6)
		for i, v := range []any{
			set.Parties, set.ProgramCodes, set.SourceDocuments,
			set.Rules, set.Inconsistencies, set.Hierarchy,
		} {
			data, err := marshalColumn(v)
			if err != nil {
				return err
			}
			cols[i] = data
		}
		if _, err := tx.ExecContext(ctx, q,
			set.ID, set.RunID, set.ContractID,
			cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
			set.ExtractedAt,
		); err != nil {
			return fmt.Errorf("insert contract rules %s: %w", set.ContractID, err)
		}
	}
	return nil
}

package resolutions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/accordhq/accord/internal/documents"
	"github.com/accordhq/accord/internal/invoices"
	"github.com/accordhq/accord/internal/rules"
	"github.com/accordhq/accord/pkg/pagination"
	"github.com/accordhq/accord/pkg/query"
	"github.com/accordhq/accord/pkg/repository"
)

const runColumns = `id, status, document_count, invoice_count, group_count, matched_count, ambiguous_count, unmatched_count, error_count, failure, started_at, completed_at`

type repo struct {
	db         *sql.DB
	documents  documents.System
	invoices   invoices.System
	extractor  *rules.Extractor
	logger     *slog.Logger
	pagination pagination.Config
	workers    int
}

// New creates a resolution repository implementing the System interface.
// extractor may be nil when rule extraction is not configured.
func New(
	db *sql.DB,
	docs documents.System,
	invs invoices.System,
	extractor *rules.Extractor,
	logger *slog.Logger,
	pagination pagination.Config,
	workers int,
) System {
	return &repo{
		db:         db,
		documents:  docs,
		invoices:   invs,
		extractor:  extractor,
		logger:     logger.With("system", "resolutions"),
		pagination: pagination,
		workers:    workers,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count resolution runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	runs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query resolution runs: %w", err)
	}

	result := pagination.NewPageResult(runs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &run, nil
}

func (r *repo) Groups(ctx context.Context, runID uuid.UUID) ([]Group, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, run_id, group_key, primary_path, key_identifiers, parties, program_codes, date_start, date_end
		FROM agreement_groups
		WHERE run_id = $1
		ORDER BY group_key`

	groups, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanGroup)
	if err != nil {
		return nil, fmt.Errorf("query agreement groups: %w", err)
	}

	memberQ := `
		SELECT d.group_id, d.path, d.relation, d.confidence, d.evidence
		FROM group_documents d
		JOIN agreement_groups g ON g.id = d.group_id
		WHERE g.run_id = $1
		ORDER BY d.group_id, d.position`

	members, err := repository.QueryMany(ctx, r.db, memberQ, []any{runID}, scanMember)
	if err != nil {
		return nil, fmt.Errorf("query group documents: %w", err)
	}

	byGroup := make(map[uuid.UUID][]GroupDocument, len(groups))
	for _, m := range members {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m.Doc)
	}
	for i := range groups {
		groups[i].Documents = byGroup[groups[i].ID]
	}
	return groups, nil
}

func (r *repo) Matches(ctx context.Context, runID uuid.UUID) ([]Match, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, run_id, invoice_path, status, contract_id, match_method, confidence, details, alternatives
		FROM match_results
		WHERE run_id = $1
		ORDER BY invoice_path`

	matches, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanMatch)
	if err != nil {
		return nil, fmt.Errorf("query match results: %w", err)
	}
	return matches, nil
}

func (r *repo) Errors(ctx context.Context, runID uuid.UUID) ([]RunError, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, run_id, path, stage, message
		FROM resolution_errors
		WHERE run_id = $1
		ORDER BY path, stage`

	errs, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanRunError)
	if err != nil {
		return nil, fmt.Errorf("query resolution errors: %w", err)
	}
	return errs, nil
}

func (r *repo) Audit(ctx context.Context, runID uuid.UUID) ([]AuditRecord, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, run_id, stage, subject, decision, confidence, details, recorded_at
		FROM audit_events
		WHERE run_id = $1
		ORDER BY position`

	events, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanAuditRecord)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return events, nil
}

func (r *repo) Rules(ctx context.Context, runID uuid.UUID) ([]ContractRuleSet, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, run_id, contract_id, parties, program_codes, source_documents, rules, inconsistencies, hierarchy, extracted_at
		FROM contract_rules
		WHERE run_id = $1
		ORDER BY contract_id`

	sets, err := repository.QueryMany(ctx, r.db, q, []any{runID}, scanRuleSet)
	if err != nil {
		return nil, fmt.Errorf("query contract rules: %w", err)
	}
	return sets, nil
}

func (r *repo) insertRun(ctx context.Context, documentCount, invoiceCount int) (*Run, error) {
	q := `
		INSERT INTO resolution_runs(id, document_count, invoice_count)
		VALUES ($1, $2, $3)
		RETURNING ` + runColumns

	run, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{uuid.New(), documentCount, invoiceCount},
		scanRun,
	)
	if err != nil {
		return nil, fmt.Errorf("insert resolution run: %w", err)
	}
	return &run, nil
}

func (r *repo) failRun(ctx context.Context, id uuid.UUID, cause error) {
	q := `
		UPDATE resolution_runs
		SET status = $2, failure = $3, completed_at = $4
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, q, id, StatusFailed, cause.Error(), time.Now().UTC()); err != nil {
		r.logger.Error("failed to mark run as failed", "run_id", id, "error", err)
	}
}

type member struct {
	GroupID uuid.UUID
	Doc     GroupDocument
}

func scanMember(s repository.Scanner) (member, error) {
	var m member
	err := s.Scan(&m.GroupID, &m.Doc.Path, &m.Doc.Relation, &m.Doc.Confidence, &m.Doc.Evidence)
	return m, err
}

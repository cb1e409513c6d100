package engine

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DocumentSeed is the pipeline input for one agreement-family document:
// provisioned text plus the originating path. Field extraction happens
// inside the pipeline; callers supply text only.
type DocumentSeed struct {
	Path     string
	Filename string
	RawText  string
}

// Pipeline orchestrates a full resolution run: parallel classification and
// identifier extraction, a sequential grouping pass, then parallel invoice
// matching. One malformed item never aborts a run; item failures are
// collected and reported alongside complete results. Only a grouping
// partition violation or context cancellation fails the batch.
type Pipeline struct {
	logger  *slog.Logger
	audit   AuditRecorder
	workers int
}

// NewPipeline builds a pipeline. workers bounds stage parallelism; zero
// means one worker per CPU.
func NewPipeline(logger *slog.Logger, audit AuditRecorder, workers int) *Pipeline {
	return &Pipeline{
		logger:  logger.With("system", "engine"),
		audit:   audit,
		workers: workers,
	}
}

func (p *Pipeline) workerCount(items int) int {
	limit := p.workers
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return max(min(limit, items), 1)
}

// BuildRecord classifies one document and derives all its extraction
// signals. Classification always yields at least one detection; only an
// engine configuration defect can fail.
func BuildRecord(seed DocumentSeed) (*DocumentRecord, error) {
	detected := ClassifyDocument(seed.RawText, seed.Filename)
	ids, err := ExtractIdentifiers(seed.RawText, detected)
	if err != nil {
		return nil, err
	}
	return &DocumentRecord{
		Path:           seed.Path,
		Filename:       seed.Filename,
		RawText:        seed.RawText,
		DetectedTypes:  detected,
		ExtractedIDs:   ids,
		Parties:        ExtractParties(seed.RawText),
		FilenameTokens: FilenameTokens(seed.Filename),
		ProgramCode:    ExtractProgramCode(seed.Filename),
		Dates:          ExtractDates(seed.Filename, seed.RawText),
	}, nil
}

// Run executes the resolution pipeline over a document and invoice batch.
func (p *Pipeline) Run(ctx context.Context, seeds []DocumentSeed, invoices []*InvoiceRecord) (*BatchResult, error) {
	start := time.Now()
	p.logger.InfoContext(ctx, "run starting", "documents", len(seeds), "invoices", len(invoices))

	var mu sync.Mutex
	var itemErrors []ItemError
	fail := func(path, stage string, err error) {
		mu.Lock()
		defer mu.Unlock()
		itemErrors = append(itemErrors, ItemError{Path: path, Stage: stage, Message: err.Error()})
	}

	records := make([]*DocumentRecord, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount(len(seeds)))
	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := BuildRecord(seed)
			if err != nil {
				fail(seed.Path, StageClassify, err)
				return nil
			}
			records[i] = record
			p.auditRecord(gctx, record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var groupable []*DocumentRecord
	for _, record := range records {
		if record == nil {
			continue
		}
		if primary, ok := record.PrimaryType(); ok && primary == DocTypeInvoice {
			p.audit.Record(ctx, AuditEvent{
				Stage:      StageGroup,
				Subject:    record.Path,
				Decision:   "excluded invoice-typed document from grouping",
				RecordedAt: time.Now().UTC(),
			})
			continue
		}
		groupable = append(groupable, record)
	}

	groups, err := GroupDocuments(groupable)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		p.audit.Record(ctx, AuditEvent{
			Stage:    StageGroup,
			Subject:  groups[i].PrimaryDocument,
			Decision: "assigned group " + groups[i].GroupKey,
			Details: map[string]any{
				"members":         len(groups[i].RelatedDocuments) + 1,
				"key_identifiers": groups[i].KeyIdentifiers,
			},
			RecordedAt: time.Now().UTC(),
		})
	}

	matcher := NewMatcher(groups, groupable)
	matches := make([]MatchResult, len(invoices))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount(len(invoices)))
	for i, inv := range invoices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matches[i] = matcher.Match(inv)
			p.auditMatch(gctx, &matches[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(itemErrors, func(a, b ItemError) int {
		return strings.Compare(a.Path, b.Path)
	})

	p.logger.InfoContext(ctx, "run complete",
		"groups", len(groups),
		"matches", len(matches),
		"errors", len(itemErrors),
		"duration", time.Since(start),
	)
	return &BatchResult{Groups: groups, Matches: matches, Errors: itemErrors}, nil
}

func (p *Pipeline) auditRecord(ctx context.Context, record *DocumentRecord) {
	top := record.DetectedTypes[0]
	p.audit.Record(ctx, AuditEvent{
		Stage:      StageClassify,
		Subject:    record.Path,
		Decision:   "classified as " + string(top.Type),
		Confidence: top.Confidence,
		Details:    map[string]any{"evidence": top.Evidence, "detections": len(record.DetectedTypes)},
		RecordedAt: time.Now().UTC(),
	})
	for _, e := range record.ExtractedIDs {
		if e.ID == nil {
			continue
		}
		p.audit.Record(ctx, AuditEvent{
			Stage:      StageIdentify,
			Subject:    record.Path,
			Decision:   "extracted " + string(e.Type) + " identifier " + *e.ID,
			Confidence: e.Confidence,
			RecordedAt: time.Now().UTC(),
		})
	}
}

func (p *Pipeline) auditMatch(ctx context.Context, result *MatchResult) {
	decision := string(result.Status)
	if result.ContractID != nil {
		decision += " to " + *result.ContractID
	}
	event := AuditEvent{
		Stage:      StageMatch,
		Subject:    result.InvoicePath,
		Decision:   decision,
		Confidence: result.Confidence,
		RecordedAt: time.Now().UTC(),
	}
	if result.MatchMethod != nil {
		event.Details = map[string]any{"method": string(*result.MatchMethod)}
	}
	p.audit.Record(ctx, event)
}

package invoices

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/accordhq/accord/pkg/pagination"
	"github.com/accordhq/accord/pkg/query"
	"github.com/accordhq/accord/pkg/repository"
	"github.com/accordhq/accord/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an invoice repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "invoices"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Invoice], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Vendor")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	invs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	result := pagination.NewPageResult(invs, total, page.Page, page.PageSize)
	return &result, nil
}

// All returns every registered invoice ordered by storage key. The
// resolution runner uses this to seed a batch.
func (r *repo) All(ctx context.Context) ([]Invoice, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "StorageKey"}).
		Build()

	invs, err := repository.QueryMany(ctx, r.db, q, args, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("query all invoices: %w", err)
	}
	return invs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	i, err := repository.QueryOne(ctx, r.db, q, args, scanInvoice)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &i, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Invoice, error) {
	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload invoice blob: %w", err)
	}

	q := `
		INSERT INTO invoices(id, filename, content_type, size_bytes, storage_key, invoice_number, vendor, po_number, program_code, invoice_date, amount, currency, services_description, payment_terms, extracted_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, filename, content_type, size_bytes, storage_key, invoice_number, vendor, po_number, program_code, invoice_date, amount, currency, services_description, payment_terms, extracted_text, status, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		key,
		cmd.InvoiceNumber,
		cmd.Vendor,
		cmd.PONumber,
		cmd.ProgramCode,
		cmd.InvoiceDate,
		cmd.Amount,
		cmd.Currency,
		cmd.ServicesDescription,
		cmd.PaymentTerms,
		cmd.ExtractedText,
	}

	i, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Invoice, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanInvoice)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("invoice created",
		"id", i.ID,
		"filename", i.Filename,
		"po_number", i.PONumber,
	)
	return &i, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	inv, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM invoices WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, inv.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", inv.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("invoice deleted", "id", id)
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("invoices/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "invoice"
	}
	return url.PathEscape(name)
}

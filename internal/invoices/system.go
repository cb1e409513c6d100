package invoices

import (
	"context"

	"github.com/google/uuid"

	"github.com/accordhq/accord/pkg/pagination"
)

// System defines the public contract for invoice domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Invoice], error)

	All(ctx context.Context) ([]Invoice, error)
	Find(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Create(ctx context.Context, cmd CreateCommand) (*Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

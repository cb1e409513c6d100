package resolutions

import (
	"context"

	"github.com/google/uuid"

	"github.com/accordhq/accord/pkg/pagination"
)

// System defines the public contract for resolution domain operations.
type System interface {
	Handler() *Handler

	Trigger(ctx context.Context) (*RunDetail, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Groups(ctx context.Context, runID uuid.UUID) ([]Group, error)
	Matches(ctx context.Context, runID uuid.UUID) ([]Match, error)
	Errors(ctx context.Context, runID uuid.UUID) ([]RunError, error)
	Audit(ctx context.Context, runID uuid.UUID) ([]AuditRecord, error)
	Rules(ctx context.Context, runID uuid.UUID) ([]ContractRuleSet, error)
}

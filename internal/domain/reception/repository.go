package reception

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

// ListFilter narrows List results.
type ListFilter struct {
	// IsClosed selects open (false) or closed (true) receptions; nil returns both.
	IsClosed *bool
}

// Repository persists receptions.
type Repository interface {
	Create(ctx context.Context, r *Reception) error
	// GetByID returns NotFound when absent.
	GetByID(ctx context.Context, receptionID id.ID) (*Reception, error)
	// GetForUpdate locks the reception row until the transaction ends.
	GetForUpdate(ctx context.Context, receptionID id.ID) (*Reception, error)
	Update(ctx context.Context, r *Reception) error
	// Delete removes the reception together with its batches.
	Delete(ctx context.Context, receptionID id.ID) error
	// List orders newest reception first.
	List(ctx context.Context, filter ListFilter) ([]Reception, error)
}

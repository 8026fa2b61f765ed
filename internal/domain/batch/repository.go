package batch

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

// Repository persists batches and their change history.
//
// List methods return batches oldest first (see CompareArrival).
// ForUpdate variants lock the returned rows until the surrounding transaction ends.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	// CreateMany inserts all batches or none.
	CreateMany(ctx context.Context, batches []Batch) error

	// GetByID returns NotFound when absent.
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)
	GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	ListByReception(ctx context.Context, receptionID id.ID) ([]Batch, error)
	ListByReceptionForUpdate(ctx context.Context, receptionID id.ID) ([]Batch, error)

	// ListOpenByProduct returns only batches whose reception is open.
	ListOpenByProduct(ctx context.Context, productID id.ID) ([]Batch, error)
	ListOpenByProductForUpdate(ctx context.Context, productID id.ID) ([]Batch, error)

	// ListOpen returns every batch of every open reception.
	ListOpen(ctx context.Context) ([]Batch, error)

	// UpdateQuantities stores remaining quantity and sale totals.
	UpdateQuantities(ctx context.Context, b *Batch) error

	// Delete removes the batch; deleting a missing batch is not an error.
	Delete(ctx context.Context, batchID id.ID) error

	CreateChange(ctx context.Context, c *Change) error
	// ListChanges returns history oldest first.
	ListChanges(ctx context.Context, batchID id.ID) ([]Change, error)
}

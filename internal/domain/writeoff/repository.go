package writeoff

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

// Repository persists write-offs. Entries are listed oldest first.
type Repository interface {
	Create(ctx context.Context, w *WriteOff) error
	ListByBatch(ctx context.Context, batchID id.ID) ([]Entry, error)
	ListByReception(ctx context.Context, receptionID id.ID) ([]Entry, error)
	// TotalsByReception sums written-off quantity per batch of the reception.
	TotalsByReception(ctx context.Context, receptionID id.ID) (map[id.ID]int64, error)
}

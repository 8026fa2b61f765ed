package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
)

const writeOffsTable = "write_offs"

var writeOffColumns = postgres.ExtractDBColumns[writeoff.WriteOff]()

// WriteOffRepo implements writeoff.Repository.
type WriteOffRepo struct {
	postgres.BaseRepo
}

var _ writeoff.Repository = (*WriteOffRepo)(nil)

// NewWriteOffRepo creates a new write-off repository.
func NewWriteOffRepo(txManager *postgres.TxManager) *WriteOffRepo {
	return &WriteOffRepo{BaseRepo: postgres.NewBaseRepo(txManager)}
}

func (r *WriteOffRepo) Create(ctx context.Context, w *writeoff.WriteOff) error {
	if err := r.InsertStruct(ctx, writeOffsTable, writeOffColumns, w); err != nil {
		return postgres.MapError(err, "write-off")
	}
	return nil
}

func (r *WriteOffRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]writeoff.Entry, error) {
	return r.entries(ctx, squirrel.Eq{"w.batch_id": batchID})
}

func (r *WriteOffRepo) ListByReception(ctx context.Context, receptionID id.ID) ([]writeoff.Entry, error) {
	return r.entries(ctx, squirrel.Eq{"w.reception_id": receptionID})
}

func (r *WriteOffRepo) entries(ctx context.Context, where squirrel.Sqlizer) ([]writeoff.Entry, error) {
	cols := append(postgres.Qualify("w", writeOffColumns), "ri.price_per_unit")
	q := r.Builder().Select(cols...).
		From(writeOffsTable + " w").
		Join(batchesTable + " ri ON ri.id = w.batch_id").
		Where(where).
		OrderBy("w.created_at", "w.id")

	var entries []writeoff.Entry
	if err := r.Select(ctx, &entries, q); err != nil {
		return nil, fmt.Errorf("select write-offs: %w", err)
	}
	return entries, nil
}

func (r *WriteOffRepo) TotalsByReception(ctx context.Context, receptionID id.ID) (map[id.ID]int64, error) {
	q := r.Builder().Select("batch_id", "SUM(quantity) AS quantity").
		From(writeOffsTable).
		Where(squirrel.Eq{"reception_id": receptionID}).
		GroupBy("batch_id")

	var rows []struct {
		BatchID  id.ID `db:"batch_id"`
		Quantity int64 `db:"quantity"`
	}
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("sum write-offs: %w", err)
	}

	totals := make(map[id.ID]int64, len(rows))
	for _, row := range rows {
		totals[row.BatchID] = row.Quantity
	}
	return totals, nil
}

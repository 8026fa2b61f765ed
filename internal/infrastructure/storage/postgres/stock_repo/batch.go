package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
)

const (
	batchesTable = "reception_items"
	changesTable = "stock_changes"
)

var (
	batchColumns  = postgres.ExtractDBColumns[batch.Batch]()
	changeColumns = postgres.ExtractDBColumns[batch.Change]()

	// Same order as batch.CompareArrival: arrival (or creation day), creation time, id.
	batchOrder = []string{
		"COALESCE(ri.arrival_date, (ri.created_at AT TIME ZONE 'UTC')::date)",
		"ri.created_at",
		"ri.id",
	}
)

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	postgres.BaseRepo
	inserter *postgres.BulkInserter
}

var _ batch.Repository = (*BatchRepo)(nil)

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		BaseRepo: postgres.NewBaseRepo(txManager),
		inserter: postgres.NewBulkInserter(txManager),
	}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	if err := r.InsertStruct(ctx, batchesTable, batchColumns, b); err != nil {
		return postgres.MapError(err, "batch")
	}
	return nil
}

// CreateMany inserts batches with COPY inside a transaction,
// and with a single multi-row INSERT otherwise.
func (r *BatchRepo) CreateMany(ctx context.Context, batches []batch.Batch) error {
	if len(batches) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(batches))
	for i := range batches {
		rows = append(rows, postgres.ValuesOf(postgres.StructToMap(&batches[i]), batchColumns))
	}

	if r.TxManager().GetTx(ctx) != nil {
		if _, err := r.inserter.CopyFromSlice(ctx, batchesTable, batchColumns, rows); err != nil {
			return postgres.MapError(fmt.Errorf("copy batches: %w", err), "batch")
		}
		return nil
	}

	q := r.Builder().Insert(batchesTable).Columns(batchColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	if _, err := r.Exec(ctx, q); err != nil {
		return postgres.MapError(fmt.Errorf("insert batches: %w", err), "batch")
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getOne(ctx, batchID, "")
}

// GetForUpdate returns the batch with a row lock.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getOne(ctx, batchID, "FOR UPDATE")
}

func (r *BatchRepo) getOne(ctx context.Context, batchID id.ID, suffix string) (*batch.Batch, error) {
	q := r.Builder().Select(batchColumns...).From(batchesTable).
		Where(squirrel.Eq{"id": batchID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	var b batch.Batch
	if err := r.Get(ctx, &b, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *BatchRepo) ListByReception(ctx context.Context, receptionID id.ID) ([]batch.Batch, error) {
	return r.list(ctx, squirrel.Eq{"ri.reception_id": receptionID}, false, false)
}

func (r *BatchRepo) ListByReceptionForUpdate(ctx context.Context, receptionID id.ID) ([]batch.Batch, error) {
	return r.list(ctx, squirrel.Eq{"ri.reception_id": receptionID}, false, true)
}

func (r *BatchRepo) ListOpenByProduct(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	return r.list(ctx, squirrel.Eq{"ri.product_id": productID}, true, false)
}

func (r *BatchRepo) ListOpenByProductForUpdate(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	return r.list(ctx, squirrel.Eq{"ri.product_id": productID}, true, true)
}

func (r *BatchRepo) ListOpen(ctx context.Context) ([]batch.Batch, error) {
	return r.list(ctx, nil, true, false)
}

func (r *BatchRepo) list(ctx context.Context, where squirrel.Sqlizer, openOnly, lock bool) ([]batch.Batch, error) {
	q := r.Builder().Select(postgres.Qualify("ri", batchColumns)...).
		From(batchesTable + " ri").
		OrderBy(batchOrder...)
	if where != nil {
		q = q.Where(where)
	}
	if openOnly {
		q = q.Join(receptionsTable + " r ON r.id = ri.reception_id").
			Where(squirrel.Eq{"r.is_closed": false})
	}
	if lock {
		q = q.Suffix("FOR UPDATE OF ri")
	}

	var batches []batch.Batch
	if err := r.Select(ctx, &batches, q); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

func (r *BatchRepo) UpdateQuantities(ctx context.Context, b *batch.Batch) error {
	affected, err := r.Exec(ctx, r.Builder().Update(batchesTable).
		Set("remaining_quantity", b.RemainingQuantity).
		Set("sold_quantity", b.SoldQuantity).
		Set("sold_amount", b.SoldAmount).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}))
	if err != nil {
		return postgres.MapError(fmt.Errorf("update batch quantities: %w", err), "batch")
	}
	if affected == 0 {
		return apperror.NewNotFound("batch", b.ID)
	}
	return nil
}

// Delete removes the batch; write-offs cascade, change history stays.
func (r *BatchRepo) Delete(ctx context.Context, batchID id.ID) error {
	if _, err := r.Exec(ctx, r.Builder().Delete(batchesTable).Where(squirrel.Eq{"id": batchID})); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) CreateChange(ctx context.Context, c *batch.Change) error {
	return r.InsertStruct(ctx, changesTable, changeColumns, c)
}

func (r *BatchRepo) ListChanges(ctx context.Context, batchID id.ID) ([]batch.Change, error) {
	q := r.Builder().Select(changeColumns...).From(changesTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("created_at", "id")

	var changes []batch.Change
	if err := r.Select(ctx, &changes, q); err != nil {
		return nil, fmt.Errorf("select stock changes: %w", err)
	}
	return changes, nil
}

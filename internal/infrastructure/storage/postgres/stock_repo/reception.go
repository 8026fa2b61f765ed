// Package stock_repo provides PostgreSQL implementations of the ledger
// repositories: receptions, batches with their history, write-offs and the
// reconciliation journal.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
)

const receptionsTable = "receptions"

var receptionColumns = postgres.ExtractDBColumns[reception.Reception]()

// ReceptionRepo implements reception.Repository.
type ReceptionRepo struct {
	postgres.BaseRepo
}

var _ reception.Repository = (*ReceptionRepo)(nil)

// NewReceptionRepo creates a new reception repository.
func NewReceptionRepo(txManager *postgres.TxManager) *ReceptionRepo {
	return &ReceptionRepo{BaseRepo: postgres.NewBaseRepo(txManager)}
}

func (r *ReceptionRepo) Create(ctx context.Context, rec *reception.Reception) error {
	return r.InsertStruct(ctx, receptionsTable, receptionColumns, rec)
}

func (r *ReceptionRepo) GetByID(ctx context.Context, receptionID id.ID) (*reception.Reception, error) {
	q := r.Builder().Select(receptionColumns...).From(receptionsTable).
		Where(squirrel.Eq{"id": receptionID})

	var rec reception.Reception
	if err := r.Get(ctx, &rec, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reception", receptionID)
		}
		return nil, fmt.Errorf("get reception: %w", err)
	}
	return &rec, nil
}

// GetForUpdate returns the reception with a row lock.
func (r *ReceptionRepo) GetForUpdate(ctx context.Context, receptionID id.ID) (*reception.Reception, error) {
	q := r.Builder().Select(receptionColumns...).From(receptionsTable).
		Where(squirrel.Eq{"id": receptionID}).
		Suffix("FOR UPDATE")

	var rec reception.Reception
	if err := r.Get(ctx, &rec, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reception", receptionID)
		}
		return nil, fmt.Errorf("get reception for update: %w", err)
	}
	return &rec, nil
}

func (r *ReceptionRepo) Update(ctx context.Context, rec *reception.Reception) error {
	data := postgres.StructToMap(rec)
	set := make(map[string]any)
	for _, col := range postgres.Without(receptionColumns, "id", "created_at") {
		set[col] = data[col]
	}

	affected, err := r.Exec(ctx, r.Builder().Update(receptionsTable).
		SetMap(set).
		Where(squirrel.Eq{"id": rec.ID}))
	if err != nil {
		return fmt.Errorf("update reception: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("reception", rec.ID)
	}
	return nil
}

// Delete removes the reception. Batches and their write-offs go with it
// through ON DELETE CASCADE; stock_changes rows are kept.
func (r *ReceptionRepo) Delete(ctx context.Context, receptionID id.ID) error {
	if _, err := r.Exec(ctx, r.Builder().Delete(receptionsTable).Where(squirrel.Eq{"id": receptionID})); err != nil {
		return fmt.Errorf("delete reception: %w", err)
	}
	return nil
}

func (r *ReceptionRepo) List(ctx context.Context, filter reception.ListFilter) ([]reception.Reception, error) {
	q := r.Builder().Select(receptionColumns...).From(receptionsTable).
		OrderBy("created_at DESC", "id DESC")
	if filter.IsClosed != nil {
		q = q.Where(squirrel.Eq{"is_closed": *filter.IsClosed})
	}

	var receptions []reception.Reception
	if err := r.Select(ctx, &receptions, q); err != nil {
		return nil, fmt.Errorf("select receptions: %w", err)
	}
	return receptions, nil
}

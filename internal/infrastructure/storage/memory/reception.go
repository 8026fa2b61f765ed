package memory

import (
	"context"
	"slices"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
)

// ReceptionRepo implements reception.Repository.
type ReceptionRepo struct{ s *Store }

var _ reception.Repository = (*ReceptionRepo)(nil)

func (r *ReceptionRepo) Create(ctx context.Context, rec *reception.Reception) error {
	return r.s.write(ctx, func() error {
		r.s.receptions[rec.ID] = *rec
		return nil
	})
}

func (r *ReceptionRepo) GetByID(ctx context.Context, receptionID id.ID) (*reception.Reception, error) {
	var (
		rec reception.Reception
		ok  bool
	)
	r.s.read(ctx, func() { rec, ok = r.s.receptions[receptionID] })
	if !ok {
		return nil, apperror.NewNotFound("reception", receptionID)
	}
	return &rec, nil
}

// GetForUpdate is GetByID: the transaction already holds the store lock.
func (r *ReceptionRepo) GetForUpdate(ctx context.Context, receptionID id.ID) (*reception.Reception, error) {
	return r.GetByID(ctx, receptionID)
}

func (r *ReceptionRepo) Update(ctx context.Context, rec *reception.Reception) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.receptions[rec.ID]; !ok {
			return apperror.NewNotFound("reception", rec.ID)
		}
		r.s.receptions[rec.ID] = *rec
		return nil
	})
}

func (r *ReceptionRepo) Delete(ctx context.Context, receptionID id.ID) error {
	return r.s.write(ctx, func() error {
		delete(r.s.receptions, receptionID)
		for batchID, b := range r.s.batches {
			if b.ReceptionID == receptionID {
				r.s.deleteBatchLocked(batchID)
			}
		}
		return nil
	})
}

func (r *ReceptionRepo) List(ctx context.Context, filter reception.ListFilter) ([]reception.Reception, error) {
	var out []reception.Reception
	r.s.read(ctx, func() {
		for _, rec := range r.s.receptions {
			if filter.IsClosed != nil && rec.IsClosed != *filter.IsClosed {
				continue
			}
			out = append(out, rec)
		}
	})
	slices.SortFunc(out, func(a, b reception.Reception) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return id.Compare(b.ID, a.ID)
	})
	return out, nil
}

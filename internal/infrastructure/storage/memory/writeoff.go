package memory

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

// WriteOffRepo implements writeoff.Repository.
type WriteOffRepo struct{ s *Store }

var _ writeoff.Repository = (*WriteOffRepo)(nil)

func (r *WriteOffRepo) Create(ctx context.Context, w *writeoff.WriteOff) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.batches[w.BatchID]; !ok {
			return apperror.NewNotFound("batch", w.BatchID)
		}
		r.s.writeOffs = append(r.s.writeOffs, *w)
		return nil
	})
}

func (r *WriteOffRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]writeoff.Entry, error) {
	return r.entries(ctx, func(w *writeoff.WriteOff) bool { return w.BatchID == batchID }), nil
}

func (r *WriteOffRepo) ListByReception(ctx context.Context, receptionID id.ID) ([]writeoff.Entry, error) {
	return r.entries(ctx, func(w *writeoff.WriteOff) bool { return w.ReceptionID == receptionID }), nil
}

func (r *WriteOffRepo) TotalsByReception(ctx context.Context, receptionID id.ID) (map[id.ID]int64, error) {
	totals := make(map[id.ID]int64)
	r.s.read(ctx, func() {
		for _, w := range r.s.writeOffs {
			if w.ReceptionID == receptionID {
				totals[w.BatchID] += w.Quantity
			}
		}
	})
	return totals, nil
}

func (r *WriteOffRepo) entries(ctx context.Context, keep func(w *writeoff.WriteOff) bool) []writeoff.Entry {
	var out []writeoff.Entry
	r.s.read(ctx, func() {
		for _, w := range r.s.writeOffs {
			if !keep(&w) {
				continue
			}
			b, ok := r.s.batches[w.BatchID]
			if !ok {
				continue
			}
			out = append(out, writeoff.Entry{WriteOff: w, PricePerUnit: b.PricePerUnit})
		}
	})
	return out
}

package memory

import (
	"context"
	"slices"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

// BatchRepo implements batch.Repository.
type BatchRepo struct{ s *Store }

var _ batch.Repository = (*BatchRepo)(nil)

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.CreateMany(ctx, []batch.Batch{*b})
}

func (r *BatchRepo) CreateMany(ctx context.Context, batches []batch.Batch) error {
	return r.s.write(ctx, func() error {
		for _, b := range batches {
			if _, ok := r.s.receptions[b.ReceptionID]; !ok {
				return apperror.NewNotFound("reception", b.ReceptionID)
			}
			if _, ok := r.s.products[b.ProductID]; !ok {
				return apperror.NewNotFound("product", b.ProductID)
			}
		}
		for _, b := range batches {
			r.s.batches[b.ID] = b
		}
		return nil
	})
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	var (
		b  batch.Batch
		ok bool
	)
	r.s.read(ctx, func() { b, ok = r.s.batches[batchID] })
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	return &b, nil
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.GetByID(ctx, batchID)
}

func (r *BatchRepo) ListByReception(ctx context.Context, receptionID id.ID) ([]batch.Batch, error) {
	return r.filter(ctx, func(b *batch.Batch) bool { return b.ReceptionID == receptionID }), nil
}

func (r *BatchRepo) ListByReceptionForUpdate(ctx context.Context, receptionID id.ID) ([]batch.Batch, error) {
	return r.ListByReception(ctx, receptionID)
}

func (r *BatchRepo) ListOpenByProduct(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	return r.filter(ctx, func(b *batch.Batch) bool {
		return b.ProductID == productID && r.s.isOpen(b.ReceptionID)
	}), nil
}

func (r *BatchRepo) ListOpenByProductForUpdate(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	return r.ListOpenByProduct(ctx, productID)
}

func (r *BatchRepo) ListOpen(ctx context.Context) ([]batch.Batch, error) {
	return r.filter(ctx, func(b *batch.Batch) bool { return r.s.isOpen(b.ReceptionID) }), nil
}

func (r *BatchRepo) UpdateQuantities(ctx context.Context, b *batch.Batch) error {
	return r.s.write(ctx, func() error {
		stored, ok := r.s.batches[b.ID]
		if !ok {
			return apperror.NewNotFound("batch", b.ID)
		}
		stored.RemainingQuantity = b.RemainingQuantity
		stored.SoldQuantity = b.SoldQuantity
		stored.SoldAmount = b.SoldAmount
		stored.UpdatedAt = b.UpdatedAt
		r.s.batches[b.ID] = stored
		return nil
	})
}

func (r *BatchRepo) Delete(ctx context.Context, batchID id.ID) error {
	return r.s.write(ctx, func() error {
		r.s.deleteBatchLocked(batchID)
		return nil
	})
}

func (r *BatchRepo) CreateChange(ctx context.Context, c *batch.Change) error {
	return r.s.write(ctx, func() error {
		r.s.changes = append(r.s.changes, *c)
		return nil
	})
}

func (r *BatchRepo) ListChanges(ctx context.Context, batchID id.ID) ([]batch.Change, error) {
	var out []batch.Change
	r.s.read(ctx, func() {
		for _, c := range r.s.changes {
			if c.BatchID == batchID {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

func (r *BatchRepo) filter(ctx context.Context, keep func(b *batch.Batch) bool) []batch.Batch {
	var out []batch.Batch
	r.s.read(ctx, func() {
		for _, b := range r.s.batches {
			if keep(&b) {
				out = append(out, b)
			}
		}
	})
	slices.SortFunc(out, func(a, b batch.Batch) int { return batch.CompareArrival(&a, &b) })
	return out
}

// isOpen must be called with the store lock held.
func (s *Store) isOpen(receptionID id.ID) bool {
	rec, ok := s.receptions[receptionID]
	return ok && !rec.IsClosed
}

// deleteBatchLocked removes a batch and its write-offs. Change history is kept.
func (s *Store) deleteBatchLocked(batchID id.ID) {
	delete(s.batches, batchID)
	s.writeOffs = slices.DeleteFunc(s.writeOffs, func(w writeoff.WriteOff) bool { return w.BatchID == batchID })
}

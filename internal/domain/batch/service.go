package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	appctx "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/context"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

// Service is the single write path for batch quantities.
// Every remaining-quantity change goes through AdjustRemaining and leaves a Change entry.
type Service struct {
	repo       Repository
	receptions reception.Repository
	products   product.Repository
	txManager  tx.Manager
	clock      func() time.Time
}

// NewService creates a new batch store service.
func NewService(
	repo Repository,
	receptions reception.Repository,
	products product.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		receptions: receptions,
		products:   products,
		txManager:  txManager,
		clock:      time.Now,
	}
}

// SetClock overrides the time source (tests).
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Today is the current calendar date used for days_left.
func (s *Service) Today() time.Time {
	return types.DateOf(s.clock().UTC())
}

// CreateBatch receives a new batch into a reception. Remaining starts equal to initial.
func (s *Service) CreateBatch(ctx context.Context, in CreateInput) (*Batch, error) {
	var b *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.receptions.GetForUpdate(ctx, in.ReceptionID)
		if err != nil {
			return err
		}
		b, err = s.build(ctx, rec, in)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch created",
		"batch_id", b.ID,
		"reception_id", b.ReceptionID,
		"product_id", b.ProductID,
		"quantity", b.QuantityInitial,
	)
	return b, nil
}

// CreateBatches receives several batches into one reception atomically.
// Validation errors carry the zero-based "line" of the offending input.
func (s *Service) CreateBatches(ctx context.Context, receptionID id.ID, inputs []CreateInput) ([]Batch, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewValidation("at least one item is required")
	}

	var created []Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.receptions.GetForUpdate(ctx, receptionID)
		if err != nil {
			return err
		}

		created = make([]Batch, 0, len(inputs))
		for i, in := range inputs {
			in.ReceptionID = receptionID
			b, err := s.build(ctx, rec, in)
			if err != nil {
				if appErr, ok := apperror.AsAppError(err); ok {
					return appErr.WithDetail("line", i)
				}
				return err
			}
			created = append(created, *b)
		}
		if err := s.repo.CreateMany(ctx, created); err != nil {
			return fmt.Errorf("create batches: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batches imported", "reception_id", receptionID, "count", len(created))
	return created, nil
}

func (s *Service) build(ctx context.Context, rec *reception.Reception, in CreateInput) (*Batch, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	shelfLife := p.DefaultShelfLifeDays
	if in.ShelfLifeDays != nil {
		shelfLife = in.ShelfLifeDays
	}
	if shelfLife == nil {
		return nil, apperror.NewValidation("shelf_life_days is required: product has no default shelf life").
			WithDetail("product_id", p.ID)
	}

	now := s.clock().UTC()
	arrival := types.DateOf(now)
	switch {
	case in.ArrivalDate != nil:
		arrival = types.DateOf(*in.ArrivalDate)
	case rec.ReceptionDate != nil:
		arrival = types.DateOf(*rec.ReceptionDate)
	}

	return &Batch{
		ID:                id.New(),
		ReceptionID:       rec.ID,
		ProductID:         p.ID,
		QuantityInitial:   in.QuantityInitial,
		RemainingQuantity: in.QuantityInitial,
		PricePerUnit:      in.PricePerUnit,
		ArrivalDate:       &arrival,
		ShelfLifeDays:     *shelfLife,
		SoldQuantity:      0,
		SoldAmount:        types.Zero(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// GetBatch returns a batch by id.
func (s *Service) GetBatch(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// ListByReception returns the reception's batches, oldest arrival first.
func (s *Service) ListByReception(ctx context.Context, receptionID id.ID) ([]Batch, error) {
	if _, err := s.receptions.GetByID(ctx, receptionID); err != nil {
		return nil, err
	}
	return s.repo.ListByReception(ctx, receptionID)
}

// ListOpenByProduct returns the product's batches in open receptions, oldest arrival first.
func (s *Service) ListOpenByProduct(ctx context.Context, productID id.ID) ([]Batch, error) {
	return s.repo.ListOpenByProduct(ctx, productID)
}

// ListOpen returns all batches of open receptions.
func (s *Service) ListOpen(ctx context.Context) ([]Batch, error) {
	return s.repo.ListOpen(ctx)
}

// LockByReception returns the reception's batches locked for update.
// Must run inside a transaction.
func (s *Service) LockByReception(ctx context.Context, receptionID id.ID) ([]Batch, error) {
	return s.repo.ListByReceptionForUpdate(ctx, receptionID)
}

// RequireEmpty fails with Conflict while any batch of the reception still
// holds stock. The batches stay locked until the caller's transaction ends.
func (s *Service) RequireEmpty(ctx context.Context, receptionID id.ID) error {
	locked, err := s.repo.ListByReceptionForUpdate(ctx, receptionID)
	if err != nil {
		return err
	}
	if remaining := TotalRemaining(locked); remaining > 0 {
		return apperror.NewConflict("reception still holds stock").
			WithDetail("reception_id", receptionID).
			WithDetail("remaining_quantity", remaining)
	}
	return nil
}

// LockOpenByProduct returns the product's open batches locked for update.
// Must run inside a transaction.
func (s *Service) LockOpenByProduct(ctx context.Context, productID id.ID) ([]Batch, error) {
	return s.repo.ListOpenByProductForUpdate(ctx, productID)
}

// AdjustRemaining sets the batch's remaining quantity to a counted value and
// records the reconciliation. Fails with InvariantViolation when the value
// leaves [0, quantity_initial]. Sales go through RecordSale and write-offs
// through DeductWriteOff so that their own bookkeeping moves with the stock.
func (s *Service) AdjustRemaining(ctx context.Context, batchID id.ID, newRemaining int64, reason Reason) (*Batch, error) {
	if !reason.Cause.IsValid() {
		return nil, apperror.NewValidation("unknown change cause").WithDetail("cause", reason.Cause)
	}
	if reason.Cause != CauseReconciliation {
		return nil, apperror.NewValidation("only reconciliation may set remaining quantity directly").
			WithDetail("cause", reason.Cause).
			WithDetail("batch_id", batchID)
	}

	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := s.adjustLocked(ctx, b, newRemaining, reason); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeductWriteOff lowers a batch locked by the caller by quantity and records
// the change against the write-off record. Must run inside the caller's
// transaction, after the write-off itself is stored.
func (s *Service) DeductWriteOff(ctx context.Context, b *Batch, quantity int64, writeOffID id.ID, note *string) error {
	if quantity < 1 {
		return apperror.NewValidation("write-off quantity must be at least 1").
			WithDetail("quantity", quantity)
	}
	if quantity > b.RemainingQuantity {
		return apperror.NewInsufficientStock("batch", b.ID, quantity, b.RemainingQuantity)
	}
	return s.adjustLocked(ctx, b, b.RemainingQuantity-quantity, Reason{
		Cause:       CauseWriteOff,
		ReferenceID: &writeOffID,
		Note:        note,
	})
}

// adjustLocked applies a change to an already locked batch.
func (s *Service) adjustLocked(ctx context.Context, b *Batch, newRemaining int64, reason Reason) error {
	if err := b.CheckRemaining(newRemaining); err != nil {
		return err
	}
	if reason.Cause.decreaseOnly() && newRemaining > b.RemainingQuantity {
		return apperror.NewInvariantViolation(string(reason.Cause) + " cannot increase remaining quantity").
			WithDetail("batch_id", b.ID)
	}

	now := s.clock().UTC()
	change := &Change{
		ID:             id.New(),
		BatchID:        b.ID,
		ProductID:      b.ProductID,
		ReceptionID:    b.ReceptionID,
		Cause:          reason.Cause,
		QuantityBefore: b.RemainingQuantity,
		QuantityAfter:  newRemaining,
		ReferenceID:    reason.ReferenceID,
		Note:           reason.Note,
		PerformedBy:    performedBy(ctx),
		CreatedAt:      now,
	}

	b.RemainingQuantity = newRemaining
	b.UpdatedAt = now
	if err := s.repo.UpdateQuantities(ctx, b); err != nil {
		return fmt.Errorf("update batch quantities: %w", err)
	}
	if err := s.repo.CreateChange(ctx, change); err != nil {
		return fmt.Errorf("record batch change: %w", err)
	}

	logger.Info(ctx, "batch remaining adjusted",
		"batch_id", b.ID,
		"cause", reason.Cause,
		"before", change.QuantityBefore,
		"after", change.QuantityAfter,
	)
	return nil
}

// RecordSale applies an external sale event: remaining goes down and the
// sold totals go up by quantity and quantity × unitPrice.
func (s *Service) RecordSale(ctx context.Context, batchID id.ID, quantity int64, unitPrice types.Money, orderRef *string) (*Batch, error) {
	if quantity < 1 {
		return nil, apperror.NewValidation("sale quantity must be at least 1")
	}
	if err := validatePrice("unit_price", unitPrice); err != nil {
		return nil, err
	}

	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if quantity > b.RemainingQuantity {
			return apperror.NewInsufficientStock("batch", b.ID, quantity, b.RemainingQuantity)
		}

		b.SoldQuantity += quantity
		b.SoldAmount = b.SoldAmount.Add(types.Amount(quantity, unitPrice))
		if err := s.adjustLocked(ctx, b, b.RemainingQuantity-quantity, Reason{
			Cause: CauseSale,
			Note:  orderRef,
		}); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteBatch removes a batch. Fails with NotFound when the batch does not exist;
// policy on deleting batches that still hold stock belongs to the caller.
func (s *Service) DeleteBatch(ctx context.Context, batchID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, batchID); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		logger.Info(ctx, "batch deleted",
			"batch_id", batchID,
			"reception_id", b.ReceptionID,
			"remaining", b.RemainingQuantity,
		)
		return nil
	})
}

// History returns the change log of a batch, oldest first.
func (s *Service) History(ctx context.Context, batchID id.ID) ([]Change, error) {
	if _, err := s.repo.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.repo.ListChanges(ctx, batchID)
}

func performedBy(ctx context.Context) *string {
	if userID := appctx.GetUserID(ctx); userID != "" {
		return &userID
	}
	return nil
}

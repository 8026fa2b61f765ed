package writeoff

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	appctx "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/context"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

const maxCommentLength = 500

// Service records write-offs.
type Service struct {
	repo      Repository
	batches   *batch.Service
	batchRepo batch.Repository
	txManager tx.Manager
	clock     func() time.Time
}

// NewService creates a new write-off service.
func NewService(repo Repository, batches *batch.Service, batchRepo batch.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		batches:   batches,
		batchRepo: batchRepo,
		txManager: txManager,
		clock:     time.Now,
	}
}

// WriteOff removes quantity from a batch for the given reason.
// The record and the batch reduction commit together or not at all.
func (s *Service) WriteOff(ctx context.Context, batchID id.ID, quantity int64, reason Reason, comment *string) (*Result, error) {
	if quantity < 1 {
		return nil, apperror.NewValidation("write-off quantity must be at least 1").
			WithDetail("quantity", quantity)
	}
	if !reason.IsValid() {
		return nil, apperror.NewValidation("unknown write-off reason").
			WithDetail("reason", reason).
			WithDetail("allowed", Reasons)
	}
	comment, err := normalizeComment(comment)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.batchRepo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if quantity > b.RemainingQuantity {
			return apperror.NewInsufficientStock("batch", b.ID, quantity, b.RemainingQuantity)
		}

		w := &WriteOff{
			ID:          id.New(),
			BatchID:     b.ID,
			ReceptionID: b.ReceptionID,
			ProductID:   b.ProductID,
			Quantity:    quantity,
			Reason:      reason,
			Comment:     comment,
			CreatedAt:   s.clock().UTC(),
		}
		if userID := appctx.GetUserID(ctx); userID != "" {
			w.CreatedBy = &userID
		}
		if err := s.repo.Create(ctx, w); err != nil {
			return fmt.Errorf("create write-off: %w", err)
		}

		if err := s.batches.DeductWriteOff(ctx, b, quantity, w.ID, comment); err != nil {
			return err
		}

		result = &Result{
			WriteOff:       *w,
			PricePerUnit:   b.PricePerUnit,
			LossAmount:     w.Loss(b.PricePerUnit),
			RemainingAfter: b.RemainingQuantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "write-off recorded",
		"write_off_id", result.WriteOff.ID,
		"batch_id", batchID,
		"quantity", quantity,
		"reason", reason,
		"loss", result.LossAmount.String(),
	)
	return result, nil
}

// ListByBatch returns the batch's write-offs with their losses.
func (s *Service) ListByBatch(ctx context.Context, batchID id.ID) ([]Entry, error) {
	if _, err := s.batchRepo.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.repo.ListByBatch(ctx, batchID)
}

// ListByReception returns write-offs of every batch in the reception.
func (s *Service) ListByReception(ctx context.Context, receptionID id.ID) ([]Entry, error) {
	return s.repo.ListByReception(ctx, receptionID)
}

// TotalsByReception returns written-off quantity per batch.
func (s *Service) TotalsByReception(ctx context.Context, receptionID id.ID) (map[id.ID]int64, error) {
	return s.repo.TotalsByReception(ctx, receptionID)
}

func normalizeComment(comment *string) (*string, error) {
	if comment == nil {
		return nil, nil
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(c) > maxCommentLength {
		return nil, apperror.NewValidation("comment is too long").WithDetail("max", maxCommentLength)
	}
	return &c, nil
}

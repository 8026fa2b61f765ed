package reception

import (
	"context"
	"fmt"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

// Service is the reception lifecycle manager.
// Transitions only flip the open/closed flag; batch quantities are never touched here.
type Service struct {
	repo      Repository
	txManager tx.Manager
	clock     func() time.Time
}

// NewService creates a new reception service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager, clock: time.Now}
}

// Create logs a new delivery. Receptions start open.
func (s *Service) Create(ctx context.Context, d Details) (*Reception, error) {
	r, err := New(d, s.clock().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reception: %w", err)
	}

	logger.Info(ctx, "reception created", "reception_id", r.ID, "name", r.Name)
	return r, nil
}

// Get returns a reception by id.
func (s *Service) Get(ctx context.Context, receptionID id.ID) (*Reception, error) {
	return s.repo.GetByID(ctx, receptionID)
}

// List returns receptions matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Reception, error) {
	return s.repo.List(ctx, filter)
}

// Update edits name, date and references of a reception.
func (s *Service) Update(ctx context.Context, receptionID id.ID, d Details) (*Reception, error) {
	return s.mutate(ctx, receptionID, "reception updated", func(r *Reception, now time.Time) (bool, error) {
		return true, r.Update(d, now)
	})
}

// Close removes the reception's batches from global aggregation.
func (s *Service) Close(ctx context.Context, receptionID id.ID) (*Reception, error) {
	return s.mutate(ctx, receptionID, "reception closed", func(r *Reception, now time.Time) (bool, error) {
		return r.Close(now), nil
	})
}

// Reopen returns the reception's batches to global aggregation.
func (s *Service) Reopen(ctx context.Context, receptionID id.ID) (*Reception, error) {
	return s.mutate(ctx, receptionID, "reception reopened", func(r *Reception, now time.Time) (bool, error) {
		return r.Reopen(now), nil
	})
}

// DeleteCheck vetoes a deletion. It runs inside the delete transaction with
// the reception row already locked.
type DeleteCheck func(ctx context.Context, receptionID id.ID) error

// Delete removes a reception and everything it owns. The reception row is
// locked before any check runs, so batches cannot be added behind a check.
func (s *Service) Delete(ctx context.Context, receptionID id.ID, checks ...DeleteCheck) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, receptionID); err != nil {
			return err
		}
		for _, check := range checks {
			if err := check(ctx, receptionID); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, receptionID); err != nil {
			return fmt.Errorf("delete reception: %w", err)
		}
		logger.Info(ctx, "reception deleted", "reception_id", receptionID)
		return nil
	})
}

func (s *Service) mutate(
	ctx context.Context,
	receptionID id.ID,
	event string,
	fn func(r *Reception, now time.Time) (bool, error),
) (*Reception, error) {
	var result *Reception
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, receptionID)
		if err != nil {
			return err
		}
		changed, err := fn(r, s.clock().UTC())
		if err != nil {
			return err
		}
		if changed {
			if err := s.repo.Update(ctx, r); err != nil {
				return fmt.Errorf("update reception: %w", err)
			}
			logger.Info(ctx, event, "reception_id", r.ID, "is_closed", r.IsClosed)
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

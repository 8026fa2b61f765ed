package reconciliation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	appctx "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/context"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/depletion"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

var tracer = otel.Tracer("stockledger/reconciliation")

// Engine runs check (dry-run) and apply (commit) reconciliations.
//
// Checks never mutate. Applies re-run the check on locked rows inside one
// transaction and either write every correction or none.
type Engine struct {
	batches    *batch.Service
	receptions reception.Repository
	products   product.Repository
	journal    Journal
	txManager  tx.Manager
	policy     depletion.Policy
	missing    MissingLinePolicy
	clock      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDepletionPolicy replaces the newest-first default.
func WithDepletionPolicy(p depletion.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithMissingLinePolicy replaces the assume-unchanged default.
func WithMissingLinePolicy(p MissingLinePolicy) Option {
	return func(e *Engine) { e.missing = p }
}

// NewEngine creates a reconciliation engine over the batch store.
func NewEngine(
	batches *batch.Service,
	receptions reception.Repository,
	products product.Repository,
	journal Journal,
	txManager tx.Manager,
	opts ...Option,
) *Engine {
	e := &Engine{
		batches:    batches,
		receptions: receptions,
		products:   products,
		journal:    journal,
		txManager:  txManager,
		policy:     depletion.NewNewestFirst(),
		missing:    AssumeUnchanged{},
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Per-reception ---

// CheckReception compares counted quantities with the reception's batches.
func (e *Engine) CheckReception(ctx context.Context, receptionID id.ID, counts []BatchCount) (*Result, error) {
	if err := validateBatchCounts(counts); err != nil {
		return nil, err
	}

	var result *Result
	err := tx.RunReadOnly(ctx, e.txManager, func(ctx context.Context) error {
		if _, err := e.receptions.GetByID(ctx, receptionID); err != nil {
			return err
		}
		batches, err := e.batches.ListByReception(ctx, receptionID)
		if err != nil {
			return fmt.Errorf("list reception batches: %w", err)
		}
		result, err = e.compareReception(receptionID, batches, counts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyReception sets every counted batch to its actual quantity.
// Batches are targeted directly; the depletion policy is not involved.
func (e *Engine) ApplyReception(ctx context.Context, receptionID id.ID, counts []BatchCount) (*Result, error) {
	if err := validateBatchCounts(counts); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reconciliation.apply_reception",
		trace.WithAttributes(
			attribute.String("reception.id", receptionID.String()),
			attribute.Int("lines", len(counts)),
		))
	defer span.End()

	var result *Result
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.receptions.GetByID(ctx, receptionID); err != nil {
			return err
		}
		locked, err := e.batches.LockByReception(ctx, receptionID)
		if err != nil {
			return fmt.Errorf("lock reception batches: %w", err)
		}

		// Re-check against locked state; the caller's check may be stale.
		result, err = e.compareReception(receptionID, locked, counts)
		if err != nil {
			return err
		}

		sessionID := id.New()
		for _, line := range result.Lines {
			if line.Difference == 0 {
				continue
			}
			_, err := e.batches.AdjustRemaining(ctx, *line.BatchID, line.ActualQuantity, batch.Reason{
				Cause:       batch.CauseReconciliation,
				ReferenceID: &sessionID,
			})
			if err != nil {
				return err
			}
		}
		return e.journalize(ctx, sessionID, result)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply reception failed")
		return nil, classify(err)
	}

	logger.Info(ctx, "reception reconciliation applied",
		"reception_id", receptionID,
		"lines", len(result.Lines),
		"total_loss", result.TotalLoss.String(),
	)
	return result, nil
}

func (e *Engine) compareReception(receptionID id.ID, batches []batch.Batch, counts []BatchCount) (*Result, error) {
	actual := make(map[id.ID]int64, len(counts))
	known := make(map[id.ID]struct{}, len(batches))
	for i := range batches {
		known[batches[i].ID] = struct{}{}
	}
	for i, c := range counts {
		if _, ok := known[c.BatchID]; !ok {
			return nil, apperror.NewValidation("batch does not belong to reception").
				WithDetail("line", i).
				WithDetail("batch_id", c.BatchID).
				WithDetail("reception_id", receptionID)
		}
		actual[c.BatchID] = c.ActualQuantity
	}

	lines := make([]Line, 0, len(batches))
	for i := range batches {
		b := &batches[i]
		qty, counted := actual[b.ID]
		if !counted {
			qty = e.missing.Actual(b)
		}
		line := newLine(b.ProductID, b.RemainingQuantity, qty, b.PricePerUnit)
		line.BatchID = &b.ID
		line.Assumed = !counted
		lines = append(lines, line)
	}
	return newResult(ModeReception, &receptionID, lines), nil
}

// --- Global ---

// CheckGlobal compares counted quantities with each product's open stock,
// pricing deficits at the remaining-weighted average price.
func (e *Engine) CheckGlobal(ctx context.Context, counts []ProductCount) (*Result, error) {
	if err := validateProductCounts(counts); err != nil {
		return nil, err
	}

	today := e.batches.Today()
	lines := make([]Line, len(counts))
	err := tx.RunReadOnly(ctx, e.txManager, func(ctx context.Context) error {
		for i, c := range counts {
			if _, err := e.products.GetByID(ctx, c.ProductID); err != nil {
				return withLine(err, i)
			}
			open, err := e.batches.ListOpenByProduct(ctx, c.ProductID)
			if err != nil {
				return fmt.Errorf("list open batches: %w", err)
			}
			agg := Project(c.ProductID, open, today)
			lines[i] = newLine(c.ProductID, agg.TotalRemaining, c.ActualQuantity, agg.AvgPrice)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newResult(ModeGlobal, nil, lines), nil
}

// ApplyGlobal brings every counted product to its actual quantity.
// Deficits are spread by the depletion policy, surpluses land on its anchor batch.
// A single failing product aborts the whole request.
func (e *Engine) ApplyGlobal(ctx context.Context, counts []ProductCount) (*Result, error) {
	if err := validateProductCounts(counts); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reconciliation.apply_global",
		trace.WithAttributes(
			attribute.Int("lines", len(counts)),
			attribute.String("depletion.policy", e.policy.Name()),
		))
	defer span.End()

	// Lock products in id order so concurrent applies cannot deadlock.
	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return id.Compare(counts[a].ProductID, counts[b].ProductID)
	})

	var result *Result
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		today := e.batches.Today()
		lines := make([]Line, len(counts))
		plans := make([]*depletion.Plan, 0, len(counts))

		for _, i := range order {
			c := counts[i]
			if _, err := e.products.GetByID(ctx, c.ProductID); err != nil {
				return withLine(err, i)
			}
			locked, err := e.batches.LockOpenByProduct(ctx, c.ProductID)
			if err != nil {
				return fmt.Errorf("lock open batches: %w", err)
			}

			agg := Project(c.ProductID, locked, today)
			line := newLine(c.ProductID, agg.TotalRemaining, c.ActualQuantity, agg.AvgPrice)
			lines[i] = line

			var plan *depletion.Plan
			switch {
			case line.Difference < 0:
				plan, err = e.policy.Reduce(c.ProductID, locked, -line.Difference)
			case line.Difference > 0:
				plan, err = e.policy.Increase(c.ProductID, locked, line.Difference)
			default:
				continue
			}
			if err != nil {
				return withLine(err, i)
			}
			plans = append(plans, plan)
		}

		// Every plan is known to be feasible before the first write.
		sessionID := id.New()
		for _, plan := range plans {
			for _, adj := range plan.Adjustments {
				_, err := e.batches.AdjustRemaining(ctx, adj.BatchID, adj.After, batch.Reason{
					Cause:       batch.CauseReconciliation,
					ReferenceID: &sessionID,
				})
				if err != nil {
					return err
				}
			}
		}

		result = newResult(ModeGlobal, nil, lines)
		return e.journalize(ctx, sessionID, result)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply global failed")
		return nil, classify(err)
	}

	logger.Info(ctx, "global reconciliation applied",
		"lines", len(result.Lines),
		"policy", e.policy.Name(),
		"total_loss", result.TotalLoss.String(),
	)
	return result, nil
}

// Overview returns the aggregated view of every product with open batches.
func (e *Engine) Overview(ctx context.Context) ([]Aggregate, error) {
	var open []batch.Batch
	err := tx.RunReadOnly(ctx, e.txManager, func(ctx context.Context) error {
		var err error
		open, err = e.batches.ListOpen(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list open batches: %w", err)
	}
	return ProjectAll(open, e.batches.Today()), nil
}

// --- Journal ---

// GetSession returns one applied reconciliation.
func (e *Engine) GetSession(ctx context.Context, sessionID id.ID) (*Session, error) {
	return e.journal.Get(ctx, sessionID)
}

// ListSessions returns applied reconciliations, newest first.
func (e *Engine) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return e.journal.List(ctx, filter)
}

func (e *Engine) journalize(ctx context.Context, sessionID id.ID, result *Result) error {
	if !result.Changed() {
		return nil
	}
	session := &Session{
		ID:          sessionID,
		Mode:        result.Mode,
		ReceptionID: result.ReceptionID,
		Lines:       result.Lines,
		TotalLoss:   result.TotalLoss,
		AppliedAt:   e.clock().UTC(),
	}
	if userID := appctx.GetUserID(ctx); userID != "" {
		session.AppliedBy = &userID
	}
	if err := e.journal.Save(ctx, session); err != nil {
		return fmt.Errorf("save reconciliation session: %w", err)
	}
	return nil
}

// --- Helpers ---

func validateBatchCounts(counts []BatchCount) error {
	seen := make(map[id.ID]struct{}, len(counts))
	for i, c := range counts {
		if id.IsNil(c.BatchID) {
			return apperror.NewValidation("batch id is required").WithDetail("line", i)
		}
		if c.ActualQuantity < 0 {
			return apperror.NewValidation("actual quantity cannot be negative").
				WithDetail("line", i).
				WithDetail("batch_id", c.BatchID)
		}
		if _, dup := seen[c.BatchID]; dup {
			return apperror.NewValidation("batch counted twice").
				WithDetail("line", i).
				WithDetail("batch_id", c.BatchID)
		}
		seen[c.BatchID] = struct{}{}
	}
	return nil
}

func validateProductCounts(counts []ProductCount) error {
	seen := make(map[id.ID]struct{}, len(counts))
	for i, c := range counts {
		if id.IsNil(c.ProductID) {
			return apperror.NewValidation("product id is required").WithDetail("line", i)
		}
		if c.ActualQuantity < 0 {
			return apperror.NewValidation("actual quantity cannot be negative").
				WithDetail("line", i).
				WithDetail("product_id", c.ProductID)
		}
		if _, dup := seen[c.ProductID]; dup {
			return apperror.NewValidation("product counted twice").
				WithDetail("line", i).
				WithDetail("product_id", c.ProductID)
		}
		seen[c.ProductID] = struct{}{}
	}
	return nil
}

func withLine(err error, line int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("line", line)
	}
	return err
}

// classify keeps domain errors as they are and reports anything else
// from an apply as a failed atomic commit.
func classify(err error) error {
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewTransaction(err)
}

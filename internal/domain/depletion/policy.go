// Package depletion decides how a product-level quantity change is spread
// over that product's open batches. Policies are pure: they read a snapshot
// and return a Plan, the caller writes it.
package depletion

import (
	"slices"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
)

// Policy names
const (
	NewestFirstName = "newest_first"
	OldestFirstName = "oldest_first"
)

// Adjustment is the planned new remaining quantity of one batch.
type Adjustment struct {
	BatchID id.ID
	Before  int64
	After   int64
}

// Delta is the signed change.
func (a Adjustment) Delta() int64 {
	return a.After - a.Before
}

// Plan lists the batch adjustments realizing one product-level change.
type Plan struct {
	ProductID   id.ID
	Change      int64
	Adjustments []Adjustment
}

// Policy distributes a product-level change over batches.
type Policy interface {
	Name() string
	// Reduce plans a decrease of quantity (> 0) across batches.
	// InsufficientStock when the batches hold less than quantity; nothing is planned then.
	Reduce(productID id.ID, batches []batch.Batch, quantity int64) (*Plan, error)
	// Increase plans an increase of quantity (> 0) on a single anchor batch.
	// InvariantViolation when the anchor cannot absorb it without exceeding its initial quantity.
	Increase(productID id.ID, batches []batch.Batch, quantity int64) (*Plan, error)
}

// Ordering returns < 0 when a is depleted before b.
type Ordering func(a, b *batch.Batch) int

// NewestFirst depletes the latest arrival first; ties go to the most recently created batch.
func NewestFirst(a, b *batch.Batch) int {
	return batch.CompareArrival(b, a)
}

// OldestFirst depletes the earliest arrival first (FIFO).
func OldestFirst(a, b *batch.Batch) int {
	return batch.CompareArrival(a, b)
}

// SequentialPolicy walks batches in a fixed order, draining each before the next.
type SequentialPolicy struct {
	name  string
	order Ordering
}

var _ Policy = (*SequentialPolicy)(nil)

// NewSequential creates a sequential policy with a custom ordering.
func NewSequential(name string, order Ordering) *SequentialPolicy {
	return &SequentialPolicy{name: name, order: order}
}

// NewNewestFirst is the default policy: on shortfall, newer batches are reduced first.
func NewNewestFirst() *SequentialPolicy {
	return NewSequential(NewestFirstName, NewestFirst)
}

// NewOldestFirst reduces older batches first.
func NewOldestFirst() *SequentialPolicy {
	return NewSequential(OldestFirstName, OldestFirst)
}

// ByName returns the named policy.
func ByName(name string) (Policy, error) {
	switch name {
	case "", NewestFirstName:
		return NewNewestFirst(), nil
	case OldestFirstName:
		return NewOldestFirst(), nil
	}
	return nil, apperror.NewValidation("unknown depletion policy").WithDetail("policy", name)
}

// Name implements Policy.
func (p *SequentialPolicy) Name() string {
	return p.name
}

func (p *SequentialPolicy) sorted(batches []batch.Batch) []*batch.Batch {
	ordered := make([]*batch.Batch, len(batches))
	for i := range batches {
		ordered[i] = &batches[i]
	}
	slices.SortStableFunc(ordered, p.order)
	return ordered
}

// Reduce implements Policy.
func (p *SequentialPolicy) Reduce(productID id.ID, batches []batch.Batch, quantity int64) (*Plan, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("reduction must be positive").WithDetail("quantity", quantity)
	}

	available := batch.TotalRemaining(batches)
	if quantity > available {
		return nil, apperror.NewInsufficientStock("product", productID, quantity, available)
	}

	plan := &Plan{ProductID: productID, Change: -quantity}
	left := quantity
	for _, b := range p.sorted(batches) {
		if left == 0 {
			break
		}
		if b.RemainingQuantity == 0 {
			continue
		}
		take := min(b.RemainingQuantity, left)
		plan.Adjustments = append(plan.Adjustments, Adjustment{
			BatchID: b.ID,
			Before:  b.RemainingQuantity,
			After:   b.RemainingQuantity - take,
		})
		left -= take
	}
	return plan, nil
}

// Increase implements Policy. The anchor is the batch this policy would deplete first.
func (p *SequentialPolicy) Increase(productID id.ID, batches []batch.Batch, quantity int64) (*Plan, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("increase must be positive").WithDetail("quantity", quantity)
	}
	if len(batches) == 0 {
		return nil, apperror.NewInvariantViolation("no open batch to receive surplus stock").
			WithDetail("product_id", productID).
			WithDetail("surplus", quantity)
	}

	anchor := p.sorted(batches)[0]
	after := anchor.RemainingQuantity + quantity
	if after > anchor.QuantityInitial {
		return nil, apperror.NewInvariantViolation("surplus exceeds the initial quantity of the anchor batch").
			WithDetail("product_id", productID).
			WithDetail("batch_id", anchor.ID).
			WithDetail("surplus", quantity).
			WithDetail("capacity", anchor.QuantityInitial-anchor.RemainingQuantity)
	}

	return &Plan{
		ProductID: productID,
		Change:    quantity,
		Adjustments: []Adjustment{{
			BatchID: anchor.ID,
			Before:  anchor.RemainingQuantity,
			After:   after,
		}},
	}, nil
}

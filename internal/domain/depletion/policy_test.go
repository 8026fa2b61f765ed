package depletion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newBatch(arrivalDay int, initial, remaining int64) batch.Batch {
	arrival := base.AddDate(0, 0, arrivalDay)
	return batch.Batch{
		ID:                id.New(),
		ProductID:         id.MustParse("0190a3c4-0000-7000-8000-000000000001"),
		QuantityInitial:   initial,
		RemainingQuantity: remaining,
		PricePerUnit:      types.MustMoney("10"),
		ArrivalDate:       &arrival,
		ShelfLifeDays:     7,
		CreatedAt:         arrival,
	}
}

func afterOf(plan *Plan, batchID id.ID) (int64, bool) {
	for _, a := range plan.Adjustments {
		if a.BatchID == batchID {
			return a.After, true
		}
	}
	return 0, false
}

func TestNewestFirst_Reduce(t *testing.T) {
	policy := NewNewestFirst()

	t.Run("newer batch is exhausted before older is touched", func(t *testing.T) {
		b1 := newBatch(0, 5, 5) // older
		b2 := newBatch(1, 3, 3) // newer

		plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b1, b2}, 4)
		require.NoError(t, err)

		after, ok := afterOf(plan, b2.ID)
		require.True(t, ok)
		assert.Equal(t, int64(0), after)
		after, ok = afterOf(plan, b1.ID)
		require.True(t, ok)
		assert.Equal(t, int64(4), after)
		assert.Equal(t, int64(-4), plan.Change)
	})

	t.Run("deficit fully covered by newest batch leaves older untouched", func(t *testing.T) {
		b1 := newBatch(0, 10, 2)
		b2 := newBatch(1, 10, 6)

		plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b1, b2}, 5)
		require.NoError(t, err)
		require.Len(t, plan.Adjustments, 1)
		assert.Equal(t, b2.ID, plan.Adjustments[0].BatchID)
		assert.Equal(t, int64(1), plan.Adjustments[0].After)
	})

	t.Run("same arrival date falls back to creation order", func(t *testing.T) {
		first := newBatch(0, 4, 4)
		second := newBatch(0, 4, 4)
		second.CreatedAt = first.CreatedAt.Add(time.Minute)

		plan, err := policy.Reduce(first.ProductID, []batch.Batch{first, second}, 1)
		require.NoError(t, err)
		require.Len(t, plan.Adjustments, 1)
		assert.Equal(t, second.ID, plan.Adjustments[0].BatchID)
	})

	t.Run("identical timestamps fall back to highest id", func(t *testing.T) {
		first := newBatch(0, 4, 4)
		second := newBatch(0, 4, 4)
		if id.Compare(first.ID, second.ID) > 0 {
			first, second = second, first
		}

		plan, err := policy.Reduce(first.ProductID, []batch.Batch{second, first}, 1)
		require.NoError(t, err)
		assert.Equal(t, second.ID, plan.Adjustments[0].BatchID)
	})

	t.Run("empty batches are skipped", func(t *testing.T) {
		b1 := newBatch(0, 5, 5)
		b2 := newBatch(1, 5, 0)

		plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b1, b2}, 2)
		require.NoError(t, err)
		require.Len(t, plan.Adjustments, 1)
		assert.Equal(t, b1.ID, plan.Adjustments[0].BatchID)
	})

	t.Run("shortfall plans nothing", func(t *testing.T) {
		b1 := newBatch(0, 10, 2)
		b2 := newBatch(1, 10, 6)

		plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b1, b2}, 100)
		assert.Nil(t, plan)
		require.Error(t, err)
		assert.True(t, apperror.IsInsufficientStock(err))

		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, int64(100), appErr.Details["requested"])
		assert.Equal(t, int64(8), appErr.Details["available"])
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		_, err := policy.Reduce(id.New(), nil, 0)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("input order does not matter", func(t *testing.T) {
		b1 := newBatch(0, 5, 5)
		b2 := newBatch(2, 5, 5)
		b3 := newBatch(1, 5, 5)

		plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b3, b1, b2}, 7)
		require.NoError(t, err)
		require.Len(t, plan.Adjustments, 2)
		assert.Equal(t, b2.ID, plan.Adjustments[0].BatchID)
		assert.Equal(t, b3.ID, plan.Adjustments[1].BatchID)
		assert.Equal(t, int64(3), plan.Adjustments[1].After)
	})
}

func TestNewestFirst_Increase(t *testing.T) {
	policy := NewNewestFirst()

	t.Run("surplus goes to newest batch", func(t *testing.T) {
		b1 := newBatch(0, 10, 2)
		b2 := newBatch(1, 10, 6)

		plan, err := policy.Increase(b1.ProductID, []batch.Batch{b1, b2}, 3)
		require.NoError(t, err)
		require.Len(t, plan.Adjustments, 1)
		assert.Equal(t, b2.ID, plan.Adjustments[0].BatchID)
		assert.Equal(t, int64(9), plan.Adjustments[0].After)
	})

	t.Run("surplus up to initial quantity is accepted", func(t *testing.T) {
		b := newBatch(0, 10, 6)
		plan, err := policy.Increase(b.ProductID, []batch.Batch{b}, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(10), plan.Adjustments[0].After)
	})

	t.Run("overflow is rejected, not redistributed", func(t *testing.T) {
		b1 := newBatch(0, 10, 0) // plenty of room, but not the anchor
		b2 := newBatch(1, 10, 9)

		_, err := policy.Increase(b1.ProductID, []batch.Batch{b1, b2}, 2)
		require.Error(t, err)
		assert.True(t, apperror.IsInvariantViolation(err))
	})

	t.Run("no open batches", func(t *testing.T) {
		_, err := policy.Increase(id.New(), nil, 1)
		assert.True(t, apperror.IsInvariantViolation(err))
	})
}

func TestOldestFirst(t *testing.T) {
	policy := NewOldestFirst()
	b1 := newBatch(0, 5, 5)
	b2 := newBatch(1, 3, 3)

	plan, err := policy.Reduce(b1.ProductID, []batch.Batch{b1, b2}, 4)
	require.NoError(t, err)
	after, _ := afterOf(plan, b1.ID)
	assert.Equal(t, int64(1), after)
	_, touched := afterOf(plan, b2.ID)
	assert.False(t, touched)
}

func TestByName(t *testing.T) {
	p, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, NewestFirstName, p.Name())

	p, err = ByName(OldestFirstName)
	require.NoError(t, err)
	assert.Equal(t, OldestFirstName, p.Name())

	_, err = ByName("proportional")
	assert.Error(t, err)
}

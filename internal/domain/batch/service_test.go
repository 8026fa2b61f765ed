package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	appctx "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/context"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/memory"
)

var today = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	batches    *batch.Service
	receptions *reception.Service
	products   *product.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store:      store,
		batches:    batch.NewService(store.Batches(), store.Receptions(), store.Products(), store),
		receptions: reception.NewService(store.Receptions(), store),
		products:   product.NewService(store.Products()),
	}
	f.batches.SetClock(func() time.Time { return today })
	return f
}

func (f *fixture) product(t *testing.T, name string, shelfLife *int) *product.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), name, shelfLife)
	require.NoError(t, err)
	return p
}

func (f *fixture) reception(t *testing.T, date *time.Time) *reception.Reception {
	t.Helper()
	r, err := f.receptions.Create(context.Background(), reception.Details{Name: "Delivery", ReceptionDate: date})
	require.NoError(t, err)
	return r
}

func ptr[T any](v T) *T { return &v }

func day(d int) *time.Time {
	t := time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreateBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, day(8))

	t.Run("remaining starts at initial and arrival defaults to reception date", func(t *testing.T) {
		b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
			ReceptionID:     rec.ID,
			ProductID:       rose.ID,
			QuantityInitial: 10,
			PricePerUnit:    types.MustMoney("100"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), b.RemainingQuantity)
		assert.Equal(t, 7, b.ShelfLifeDays)
		require.NotNil(t, b.ArrivalDate)
		assert.Equal(t, "2026-05-08", b.ArrivalDate.Format(types.DateLayout))
		require.NotNil(t, b.DaysLeft(today))
		assert.Equal(t, 5, *b.DaysLeft(today))
	})

	t.Run("arrival falls back to today without reception date", func(t *testing.T) {
		undated := f.reception(t, nil)
		b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
			ReceptionID:     undated.ID,
			ProductID:       rose.ID,
			QuantityInitial: 1,
			ShelfLifeDays:   ptr(3),
			PricePerUnit:    types.Zero(),
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-05-10", b.ArrivalDate.Format(types.DateLayout))
		assert.Equal(t, 3, *b.DaysLeft(today))
	})

	invalid := []struct {
		name string
		in   batch.CreateInput
	}{
		{"zero quantity", batch.CreateInput{QuantityInitial: 0, PricePerUnit: types.Zero()}},
		{"zero shelf life", batch.CreateInput{QuantityInitial: 1, ShelfLifeDays: ptr(0), PricePerUnit: types.Zero()}},
		{"negative price", batch.CreateInput{QuantityInitial: 1, PricePerUnit: types.MustMoney("-1")}},
		{"price below storable scale", batch.CreateInput{QuantityInitial: 1, PricePerUnit: types.MustMoney("0.123456789")}},
		{"price out of range", batch.CreateInput{QuantityInitial: 1, PricePerUnit: types.MustMoney("1e400")}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ReceptionID = rec.ID
			tt.in.ProductID = rose.ID
			_, err := f.batches.CreateBatch(ctx, tt.in)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}

	t.Run("shelf life required when product has no default", func(t *testing.T) {
		ribbon := f.product(t, "Ribbon", nil)
		_, err := f.batches.CreateBatch(ctx, batch.CreateInput{
			ReceptionID:     rec.ID,
			ProductID:       ribbon.ID,
			QuantityInitial: 1,
			PricePerUnit:    types.Zero(),
		})
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("unknown reception", func(t *testing.T) {
		_, err := f.batches.CreateBatch(ctx, batch.CreateInput{
			ReceptionID:     id.New(),
			ProductID:       rose.ID,
			QuantityInitial: 1,
			PricePerUnit:    types.Zero(),
		})
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestCreateBatches_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, day(8))

	_, err := f.batches.CreateBatches(ctx, rec.ID, []batch.CreateInput{
		{ProductID: rose.ID, QuantityInitial: 5, PricePerUnit: types.MustMoney("10")},
		{ProductID: rose.ID, QuantityInitial: 0, PricePerUnit: types.MustMoney("10")},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 1, appErr.Details["line"])

	list, err := f.batches.ListByReception(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := f.batches.CreateBatches(ctx, rec.ID, []batch.CreateInput{
		{ProductID: rose.ID, QuantityInitial: 5, PricePerUnit: types.MustMoney("10")},
		{ProductID: rose.ID, QuantityInitial: 3, PricePerUnit: types.MustMoney("12")},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestGetBatch_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.GetBatch(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tulip := f.product(t, "Tulip", ptr(5))
	open := f.reception(t, nil)
	closed := f.reception(t, nil)

	mk := func(recID id.ID, arrival *time.Time) *batch.Batch {
		b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
			ReceptionID:     recID,
			ProductID:       tulip.ID,
			QuantityInitial: 4,
			ArrivalDate:     arrival,
			PricePerUnit:    types.MustMoney("20"),
		})
		require.NoError(t, err)
		return b
	}

	later := mk(open.ID, day(9))
	earlier := mk(open.ID, day(3))
	hidden := mk(closed.ID, day(1))

	_, err := f.receptions.Close(ctx, closed.ID)
	require.NoError(t, err)

	t.Run("by reception ordered by arrival", func(t *testing.T) {
		list, err := f.batches.ListByReception(ctx, open.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, earlier.ID, list[0].ID)
		assert.Equal(t, later.ID, list[1].ID)
	})

	t.Run("open by product skips closed receptions", func(t *testing.T) {
		list, err := f.batches.ListOpenByProduct(ctx, tulip.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, b := range list {
			assert.NotEqual(t, hidden.ID, b.ID)
		}
		assert.Equal(t, earlier.ID, list[0].ID)
	})

	t.Run("closed reception still lists its batches", func(t *testing.T) {
		list, err := f.batches.ListByReception(ctx, closed.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, hidden.ID, list[0].ID)
	})

	t.Run("reopen brings batches back", func(t *testing.T) {
		_, err := f.receptions.Reopen(ctx, closed.ID)
		require.NoError(t, err)
		list, err := f.batches.ListOpenByProduct(ctx, tulip.ID)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestAdjustRemaining(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "staff-1"})
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, nil)
	b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
		ReceptionID:     rec.ID,
		ProductID:       rose.ID,
		QuantityInitial: 10,
		PricePerUnit:    types.MustMoney("100"),
	})
	require.NoError(t, err)

	t.Run("out of range values violate the invariant", func(t *testing.T) {
		for _, v := range []int64{-1, 11} {
			_, err := f.batches.AdjustRemaining(ctx, b.ID, v, batch.Reason{Cause: batch.CauseReconciliation})
			assert.True(t, apperror.IsInvariantViolation(err), "value %d", v)
		}
		got, err := f.batches.GetBatch(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.RemainingQuantity)
	})

	t.Run("sales and write-offs cannot bypass their ledgers", func(t *testing.T) {
		_, err := f.batches.AdjustRemaining(ctx, b.ID, 8, batch.Reason{Cause: batch.CauseReconciliation})
		require.NoError(t, err)

		for _, cause := range []batch.Cause{batch.CauseSale, batch.CauseWriteOff} {
			_, err = f.batches.AdjustRemaining(ctx, b.ID, 7, batch.Reason{Cause: cause})
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "cause %s", cause)
		}

		got, err := f.batches.GetBatch(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(8), got.RemainingQuantity)
		assert.Equal(t, int64(0), got.SoldQuantity)
	})

	t.Run("reconciliation can correct upwards", func(t *testing.T) {
		got, err := f.batches.AdjustRemaining(ctx, b.ID, 10, batch.Reason{Cause: batch.CauseReconciliation})
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.RemainingQuantity)
	})

	t.Run("unknown cause", func(t *testing.T) {
		_, err := f.batches.AdjustRemaining(ctx, b.ID, 5, batch.Reason{Cause: "theft"})
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("every call is recorded with its cause", func(t *testing.T) {
		history, err := f.batches.History(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, batch.CauseReconciliation, history[0].Cause)
		assert.Equal(t, int64(-2), history[0].Delta())
		assert.Equal(t, int64(2), history[1].Delta())
		require.NotNil(t, history[0].PerformedBy)
		assert.Equal(t, "staff-1", *history[0].PerformedBy)
	})
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, nil)
	b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
		ReceptionID:     rec.ID,
		ProductID:       rose.ID,
		QuantityInitial: 10,
		PricePerUnit:    types.MustMoney("100"),
	})
	require.NoError(t, err)

	sold, err := f.batches.RecordSale(ctx, b.ID, 4, types.MustMoney("150"), ptr("order-77"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), sold.RemainingQuantity)
	assert.Equal(t, int64(4), sold.SoldQuantity)
	assert.True(t, sold.SoldAmount.Equal(types.MustMoney("600")))

	_, err = f.batches.RecordSale(ctx, b.ID, 7, types.MustMoney("150"), nil)
	assert.True(t, apperror.IsInsufficientStock(err))

	for _, price := range []string{"-1", "0.00001", "1e12"} {
		_, err = f.batches.RecordSale(ctx, b.ID, 1, types.MustMoney(price), nil)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "price %s", price)
	}

	history, err := f.batches.History(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, batch.CauseSale, history[0].Cause)
	assert.Equal(t, "order-77", *history[0].Note)

	stored, err := f.batches.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.SoldQuantity)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, nil)
	b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
		ReceptionID:     rec.ID,
		ProductID:       rose.ID,
		QuantityInitial: 2,
		PricePerUnit:    types.MustMoney("1"),
	})
	require.NoError(t, err)

	require.NoError(t, f.batches.DeleteBatch(ctx, b.ID))
	_, err = f.batches.GetBatch(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(f.batches.DeleteBatch(ctx, b.ID)))
}

func TestRequireEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	rec := f.reception(t, nil)
	b, err := f.batches.CreateBatch(ctx, batch.CreateInput{
		ReceptionID:     rec.ID,
		ProductID:       rose.ID,
		QuantityInitial: 3,
		PricePerUnit:    types.MustMoney("10"),
	})
	require.NoError(t, err)

	err = f.receptions.Delete(ctx, rec.ID, f.batches.RequireEmpty)
	require.True(t, apperror.HasCode(err, apperror.CodeConflict), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(3), appErr.Details["remaining_quantity"])

	_, err = f.batches.RecordSale(ctx, b.ID, 3, types.MustMoney("12"), nil)
	require.NoError(t, err)
	require.NoError(t, f.receptions.Delete(ctx, rec.ID, f.batches.RequireEmpty))

	_, err = f.batches.GetBatch(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err), "zero-remaining batches go with the reception")
}

func TestCreateBatch_UnknownReception(t *testing.T) {
	f := newFixture(t)
	rose := f.product(t, "Rose", ptr(7))
	_, err := f.batches.CreateBatch(context.Background(), batch.CreateInput{
		ReceptionID:     id.New(),
		ProductID:       rose.ID,
		QuantityInitial: 1,
		PricePerUnit:    types.MustMoney("1"),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDaysLeft(t *testing.T) {
	b := batch.Batch{ShelfLifeDays: 7}
	assert.Nil(t, b.DaysLeft(today), "unknown arrival")

	b.ArrivalDate = day(1)
	require.NotNil(t, b.DaysLeft(today))
	assert.Equal(t, -2, *b.DaysLeft(today), "expired batches report negative days")
}

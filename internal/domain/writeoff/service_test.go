package writeoff_test

import (
	"context"
	"strings"
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
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/memory"
)

type fixture struct {
	batches   *batch.Service
	writeOffs *writeoff.Service
	rec       *reception.Reception
	batch     *batch.Batch
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	batches := batch.NewService(store.Batches(), store.Receptions(), store.Products(), store)
	batches.SetClock(func() time.Time { return time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC) })

	shelf := 5
	p, err := product.NewService(store.Products()).Create(ctx, "Rose", &shelf)
	require.NoError(t, err)
	rec, err := reception.NewService(store.Receptions(), store).Create(ctx, reception.Details{Name: "Morning delivery"})
	require.NoError(t, err)
	b, err := batches.CreateBatch(ctx, batch.CreateInput{
		ReceptionID:     rec.ID,
		ProductID:       p.ID,
		QuantityInitial: 10,
		PricePerUnit:    types.MustMoney("100"),
	})
	require.NoError(t, err)

	return &fixture{
		batches:   batches,
		writeOffs: writeoff.NewService(store.WriteOffs(), batches, store.Batches(), store),
		rec:       rec,
		batch:     b,
	}
}

func TestWriteOff(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "florist"})
	f := newFixture(t)
	comment := "  petals browning  "

	res, err := f.writeOffs.WriteOff(ctx, f.batch.ID, 3, writeoff.ReasonWilted, &comment)
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.RemainingAfter)
	assert.True(t, res.LossAmount.Equal(types.MustMoney("300")))
	assert.True(t, res.PricePerUnit.Equal(types.MustMoney("100")))
	assert.Equal(t, f.rec.ID, res.WriteOff.ReceptionID)
	require.NotNil(t, res.WriteOff.Comment)
	assert.Equal(t, "petals browning", *res.WriteOff.Comment)
	require.NotNil(t, res.WriteOff.CreatedBy)
	assert.Equal(t, "florist", *res.WriteOff.CreatedBy)

	b, err := f.batches.GetBatch(ctx, f.batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.RemainingQuantity)

	history, err := f.batches.History(ctx, f.batch.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, batch.CauseWriteOff, history[0].Cause)
	assert.Equal(t, res.WriteOff.ID, *history[0].ReferenceID)
	assert.Equal(t, int64(-3), history[0].Delta())

	entries, err := f.writeOffs.ListByBatch(ctx, f.batch.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].LossAmount().Equal(types.MustMoney("300")))

	byReception, err := f.writeOffs.ListByReception(ctx, f.rec.ID)
	require.NoError(t, err)
	assert.Len(t, byReception, 1)

	totals, err := f.writeOffs.TotalsByReception(ctx, f.rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals[f.batch.ID])
}

func TestWriteOff_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	long := strings.Repeat("x", 501)

	tests := []struct {
		name     string
		batchID  id.ID
		quantity int64
		reason   writeoff.Reason
		comment  *string
		check    func(error) bool
	}{
		{"zero quantity", f.batch.ID, 0, writeoff.ReasonBroken, nil, func(err error) bool {
			return apperror.HasCode(err, apperror.CodeValidation)
		}},
		{"unknown reason", f.batch.ID, 1, writeoff.Reason("stolen"), nil, func(err error) bool {
			return apperror.HasCode(err, apperror.CodeValidation)
		}},
		{"comment too long", f.batch.ID, 1, writeoff.ReasonOther, &long, func(err error) bool {
			return apperror.HasCode(err, apperror.CodeValidation)
		}},
		{"more than remaining", f.batch.ID, 11, writeoff.ReasonDefect, nil, apperror.IsInsufficientStock},
		{"unknown batch", id.New(), 1, writeoff.ReasonDefect, nil, apperror.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.writeOffs.WriteOff(ctx, tt.batchID, tt.quantity, tt.reason, tt.comment)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	b, err := f.batches.GetBatch(ctx, f.batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.RemainingQuantity)

	entries, err := f.writeOffs.ListByBatch(ctx, f.batch.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteOff_InsufficientStockDetails(t *testing.T) {
	f := newFixture(t)

	_, err := f.writeOffs.WriteOff(context.Background(), f.batch.ID, 12, writeoff.ReasonBroken, nil)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, int64(12), appErr.Details["requested"])
	assert.Equal(t, int64(10), appErr.Details["available"])
	assert.Equal(t, f.batch.ID, appErr.Details["batch_id"])
}

func TestWriteOff_EntireBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.writeOffs.WriteOff(ctx, f.batch.ID, 10, writeoff.ReasonBroken, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RemainingAfter)
	assert.Nil(t, res.WriteOff.Comment)

	_, err = f.writeOffs.WriteOff(ctx, f.batch.ID, 1, writeoff.ReasonBroken, nil)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestReason_IsValid(t *testing.T) {
	for _, r := range writeoff.Reasons {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, writeoff.Reason("").IsValid())
}

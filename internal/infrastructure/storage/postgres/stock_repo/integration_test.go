//go:build integration

package stock_repo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres/stock_repo"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

type ledger struct {
	pool       *postgres.Pool
	txm        *postgres.TxManager
	batchRepo  *stock_repo.BatchRepo
	products   *product.Service
	receptions *reception.Service
	batches    *batch.Service
	writeOffs  *writeoff.Service
	engine     *reconciliation.Engine
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := postgres.NewMigrator(pool, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, migrator.Close())

	codec, err := postgres.NewPayloadCodec(256)
	require.NoError(t, err)

	txm := postgres.NewTxManager(pool)
	productRepo := catalog_repo.NewProductRepo(txm)
	receptionRepo := stock_repo.NewReceptionRepo(txm)
	batchRepo := stock_repo.NewBatchRepo(txm)

	l := &ledger{pool: pool, txm: txm, batchRepo: batchRepo}
	l.products = product.NewService(productRepo)
	l.receptions = reception.NewService(receptionRepo, txm)
	l.batches = batch.NewService(batchRepo, receptionRepo, productRepo, txm)
	l.writeOffs = writeoff.NewService(stock_repo.NewWriteOffRepo(txm), l.batches, batchRepo, txm)
	l.engine = reconciliation.NewEngine(l.batches, receptionRepo, productRepo,
		stock_repo.NewJournalRepo(txm, codec), txm)
	return l
}

func day(d int) *time.Time {
	t := time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestLedger_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()
	l := newLedger(t)

	shelf := 7
	peony, err := l.products.Create(ctx, "Peony", &shelf)
	require.NoError(t, err)
	_, err = l.products.Create(ctx, "Peony", nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	rec, err := l.receptions.Create(ctx, reception.Details{Name: "Monday", ReceptionDate: day(1)})
	require.NoError(t, err)

	created, err := l.batches.CreateBatches(ctx, rec.ID, []batch.CreateInput{
		{ProductID: peony.ID, QuantityInitial: 10, ArrivalDate: day(1), PricePerUnit: types.MustMoney("50")},
		{ProductID: peony.ID, QuantityInitial: 10, ArrivalDate: day(2), PricePerUnit: types.MustMoney("60")},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	older, newer := created[0], created[1]

	_, err = l.batches.RecordSale(ctx, older.ID, 8, types.MustMoney("70"), nil)
	require.NoError(t, err)
	_, err = l.batches.RecordSale(ctx, newer.ID, 4, types.MustMoney("80"), nil)
	require.NoError(t, err)

	t.Run("ordering and projection", func(t *testing.T) {
		open, err := l.batches.ListOpenByProduct(ctx, peony.ID)
		require.NoError(t, err)
		require.Len(t, open, 2)
		assert.Equal(t, older.ID, open[0].ID)

		overview, err := l.engine.Overview(ctx)
		require.NoError(t, err)
		require.Len(t, overview, 1)
		assert.True(t, overview[0].AvgPrice.Equal(types.MustMoney("57.5")))
	})

	t.Run("global apply", func(t *testing.T) {
		res, err := l.engine.ApplyGlobal(ctx, []reconciliation.ProductCount{{ProductID: peony.ID, ActualQuantity: 3}})
		require.NoError(t, err)
		assert.True(t, res.TotalLoss.Equal(types.MustMoney("287.5")))

		b, err := l.batches.GetBatch(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), b.RemainingQuantity)

		sessions, err := l.engine.ListSessions(ctx, reconciliation.SessionFilter{})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Len(t, sessions[0].Lines, 1)
		assert.Equal(t, int64(-5), sessions[0].Lines[0].Difference)
	})

	t.Run("write-off and history", func(t *testing.T) {
		res, err := l.writeOffs.WriteOff(ctx, older.ID, 2, writeoff.ReasonWilted, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.RemainingAfter)
		assert.True(t, res.LossAmount.Equal(types.MustMoney("100")))

		_, err = l.writeOffs.WriteOff(ctx, older.ID, 1, writeoff.ReasonWilted, nil)
		assert.True(t, apperror.IsInsufficientStock(err))

		entries, err := l.writeOffs.ListByReception(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].PricePerUnit.Equal(types.MustMoney("50")))

		history, err := l.batches.History(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, batch.CauseWriteOff, history[1].Cause)
	})

	t.Run("closed reception leaves global stock", func(t *testing.T) {
		_, err := l.receptions.Close(ctx, rec.ID)
		require.NoError(t, err)

		open, err := l.batches.ListOpenByProduct(ctx, peony.ID)
		require.NoError(t, err)
		assert.Empty(t, open)

		_, err = l.receptions.Reopen(ctx, rec.ID)
		require.NoError(t, err)
	})

	t.Run("delete cascades but keeps history", func(t *testing.T) {
		require.NoError(t, l.receptions.Delete(ctx, rec.ID))

		_, err := l.batches.GetBatch(ctx, older.ID)
		assert.True(t, apperror.IsNotFound(err))

		history, err := l.batchRepo.ListChanges(ctx, older.ID)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestReceptionDelete_BlocksConcurrentImport(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	shelf := 5
	lilac, err := l.products.Create(ctx, "Lilac", &shelf)
	require.NoError(t, err)
	rec, err := l.receptions.Create(ctx, reception.Details{Name: "Friday"})
	require.NoError(t, err)

	checked := make(chan struct{})
	imported := make(chan error, 1)
	go func() {
		<-checked
		_, err := l.batches.CreateBatches(ctx, rec.ID, []batch.CreateInput{
			{ProductID: lilac.ID, QuantityInitial: 5, PricePerUnit: types.MustMoney("10")},
		})
		imported <- err
	}()

	err = l.receptions.Delete(ctx, rec.ID, func(ctx context.Context, receptionID id.ID) error {
		if err := l.batches.RequireEmpty(ctx, receptionID); err != nil {
			return err
		}
		close(checked)
		select {
		case err := <-imported:
			return fmt.Errorf("import committed while the reception was locked: %v", err)
		case <-time.After(300 * time.Millisecond):
			return nil
		}
	})
	require.NoError(t, err)

	select {
	case err := <-imported:
		assert.True(t, apperror.IsNotFound(err), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("import never returned")
	}

	orphans, err := l.batchRepo.ListByReception(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestConcurrentDecreases_Postgres(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	shelf := 7
	tulip, err := l.products.Create(ctx, "Tulip", &shelf)
	require.NoError(t, err)
	rec, err := l.receptions.Create(ctx, reception.Details{Name: "Tuesday"})
	require.NoError(t, err)
	created, err := l.batches.CreateBatches(ctx, rec.ID, []batch.CreateInput{
		{ProductID: tulip.ID, QuantityInitial: 10, ArrivalDate: day(1), PricePerUnit: types.MustMoney("50")},
		{ProductID: tulip.ID, QuantityInitial: 20, ArrivalDate: day(2), PricePerUnit: types.MustMoney("60")},
	})
	require.NoError(t, err)
	older, newer := created[0], created[1]

	const rounds = 15
	errs := make(chan error, rounds*3)
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := l.writeOffs.WriteOff(ctx, older.ID, 1, writeoff.ReasonBroken, nil)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := l.batches.RecordSale(ctx, newer.ID, 1, types.MustMoney("75"), nil)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := l.engine.ApplyGlobal(ctx, []reconciliation.ProductCount{{ProductID: tulip.ID, ActualQuantity: 12}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		ok := err == nil || apperror.IsInsufficientStock(err) || apperror.IsInvariantViolation(err) ||
			apperror.HasCode(err, apperror.CodeTransaction)
		assert.True(t, ok, "unexpected error: %v", err)
	}

	for _, batchID := range []id.ID{older.ID, newer.ID} {
		b, err := l.batches.GetBatch(ctx, batchID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.RemainingQuantity, int64(0))
		assert.LessOrEqual(t, b.RemainingQuantity, b.QuantityInitial)

		history, err := l.batches.History(ctx, batchID)
		require.NoError(t, err)
		var net int64
		for _, c := range history {
			net += c.Delta()
		}
		assert.Equal(t, b.QuantityInitial+net, b.RemainingQuantity)
	}
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()
	l := newLedger(t)

	shelf := 5
	tulip, err := l.products.Create(ctx, "Tulip", &shelf)
	require.NoError(t, err)

	err = l.txm.ReadOnly(ctx, func(ctx context.Context) error {
		_, err := l.products.Create(ctx, "Iris", nil)
		return err
	})
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "25006", pgErr.Code)

	_, err = l.products.Resolve(ctx, "Iris")
	assert.True(t, apperror.IsNotFound(err), "read-only insert left nothing behind")
	_, err = l.products.Create(ctx, "Iris", nil)
	require.NoError(t, err)

	err = l.txm.ReadOnly(ctx, func(ctx context.Context) error {
		got, err := l.products.Get(ctx, tulip.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "Tulip", got.Name)
		return nil
	})
	assert.NoError(t, err)
}

// Package app assembles storage and domain services from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/config"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/depletion"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	v1 "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/memory"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres/stock_repo"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

// Storage is one persistence backend: repositories plus the transaction manager.
type Storage struct {
	Driver     string
	Products   product.Repository
	Receptions reception.Repository
	Batches    batch.Repository
	WriteOffs  writeoff.Repository
	Journal    reconciliation.Journal
	TxManager  tx.Manager

	pinger interface {
		Ping(ctx context.Context) error
	}
	closeFn func()
}

// Ping checks that the backend is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx)
}

// Close releases the backend's resources.
func (s *Storage) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// OpenStorage connects the configured backend. With PostgreSQL and
// DATABASE_AUTO_MIGRATE set, pending migrations run before it is returned.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return NewMemoryStorage(memory.New()), nil
	case config.StoragePostgres:
		return openPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewMemoryStorage wraps an in-process store.
func NewMemoryStorage(store *memory.Store) *Storage {
	return &Storage{
		Driver:     config.StorageMemory,
		Products:   store.Products(),
		Receptions: store.Receptions(),
		Batches:    store.Batches(),
		WriteOffs:  store.WriteOffs(),
		Journal:    store.Journal(),
		TxManager:  store,
		pinger:     store,
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	codec, err := postgres.NewPayloadCodec(cfg.Storage.JournalCompressThreshold)
	if err != nil {
		pool.Close()
		return nil, err
	}

	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout)
	log.Infow("database connection established",
		"max_conns", poolCfg.MaxConns,
		"statement_timeout", cfg.Database.StatementTimeout,
	)

	return &Storage{
		Driver:     config.StoragePostgres,
		Products:   catalog_repo.NewProductRepo(txm),
		Receptions: stock_repo.NewReceptionRepo(txm),
		Batches:    stock_repo.NewBatchRepo(txm),
		WriteOffs:  stock_repo.NewWriteOffRepo(txm),
		Journal:    stock_repo.NewJournalRepo(txm, codec),
		TxManager:  txm,
		pinger:     pool,
		closeFn: func() {
			pool.LogStats(context.Background())
			pool.Close()
		},
	}, nil
}

func migrateUp(pool *postgres.Pool, log *logger.Logger) error {
	m, err := postgres.NewMigrator(pool, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// NewServices builds the domain services on top of storage, with the
// ledger policies selected in cfg.
func NewServices(st *Storage, cfg *config.Config) (v1.Services, error) {
	policy, err := depletion.ByName(cfg.Inventory.DepletionPolicy)
	if err != nil {
		return v1.Services{}, err
	}
	missing, ok := reconciliation.MissingLinePolicyByName(cfg.Inventory.MissingLines)
	if !ok {
		return v1.Services{}, fmt.Errorf("unknown missing-line policy %q", cfg.Inventory.MissingLines)
	}

	batches := batch.NewService(st.Batches, st.Receptions, st.Products, st.TxManager)
	return v1.Services{
		Products:   product.NewService(st.Products),
		Receptions: reception.NewService(st.Receptions, st.TxManager),
		Batches:    batches,
		WriteOffs:  writeoff.NewService(st.WriteOffs, batches, st.Batches, st.TxManager),
		Engine: reconciliation.NewEngine(batches, st.Receptions, st.Products, st.Journal, st.TxManager,
			reconciliation.WithDepletionPolicy(policy),
			reconciliation.WithMissingLinePolicy(missing),
		),
	}, nil
}

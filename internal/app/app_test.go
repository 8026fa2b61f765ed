package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/app"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/config"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageMemory},
		Inventory: config.InventoryConfig{
			DepletionPolicy: "newest_first",
			MissingLines:    "assume_unchanged",
		},
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	st, err := app.OpenStorage(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, config.StorageMemory, st.Driver)
	assert.NoError(t, st.Ping(context.Background()))

	svc, err := app.NewServices(st, memoryConfig())
	require.NoError(t, err)

	p, err := svc.Products.Create(context.Background(), "Tulip", nil)
	require.NoError(t, err)
	got, err := st.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tulip", got.Name)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = "sqlite"
	_, err := app.OpenStorage(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "sqlite")
}

func TestNewServices_RejectsUnknownPolicies(t *testing.T) {
	st, err := app.OpenStorage(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)

	cfg := memoryConfig()
	cfg.Inventory.DepletionPolicy = "random"
	_, err = app.NewServices(st, cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Inventory.MissingLines = "guess"
	_, err = app.NewServices(st, cfg)
	assert.ErrorContains(t, err, "guess")
}

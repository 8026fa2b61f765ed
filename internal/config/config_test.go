package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "newest_first", cfg.Inventory.DepletionPolicy)
	assert.Equal(t, "assume_unchanged", cfg.Inventory.MissingLines)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoad_FromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"DATABASE_URL=postgres://ledger@localhost/ledger\n"+
			"DATABASE_MAX_CONNS=8\n"+
			"INVENTORY_DEPLETION_POLICY=oldest_first\n"+
			"HTTP_WRITE_TIMEOUT=45s\n"+
			"AUTH_JWT_SECRET=s3cret\n",
	), 0o600))
	for _, key := range []string{"DATABASE_URL", "DATABASE_MAX_CONNS", "INVENTORY_DEPLETION_POLICY", "HTTP_WRITE_TIMEOUT", "AUTH_JWT_SECRET"} {
		unsetForTest(t, key)
	}
	t.Setenv("STORAGE_DRIVER", "postgres")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.Database.URL)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
	assert.Equal(t, "oldest_first", cfg.Inventory.DepletionPolicy)
	assert.Equal(t, 45*time.Second, cfg.HTTP.WriteTimeout)
	assert.True(t, cfg.Auth.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Port: "8080"},
			Database:  DatabaseConfig{URL: "postgres://x", MaxConns: 5, MinConns: 1},
			Storage:   StorageConfig{Driver: StoragePostgres},
			Inventory: InventoryConfig{DepletionPolicy: "newest_first", MissingLines: "assume_zero"},
			HTTP:      HTTPConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"min above max", func(c *Config) { c.Database.MinConns = 10 }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"unknown depletion policy", func(c *Config) { c.Inventory.DepletionPolicy = "random" }},
		{"unknown missing-line policy", func(c *Config) { c.Inventory.MissingLines = "guess" }},
		{"zero timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

// unsetForTest clears key for the duration of the test so that values from
// an env file are not shadowed by the outer environment.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

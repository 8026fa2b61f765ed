// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/depletion"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Inventory InventoryConfig
	HTTP      HTTPConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env  string
	Port string
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	AutoMigrate      bool
	StatementTimeout time.Duration
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
	// JournalCompressThreshold is the reconciliation payload size (bytes) above which lines are compressed.
	JournalCompressThreshold int
}

// AuthConfig holds bearer token settings. An empty secret disables authentication.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// Enabled reports whether requests must carry a token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// InventoryConfig selects the pluggable ledger policies.
type InventoryConfig struct {
	DepletionPolicy string
	MissingLines    string
}

// HTTPConfig holds HTTP server timeouts.
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// Load reads an optional .env file, then the environment.
// Priority (highest to lowest):
// 1. Environment variables (e.g. DATABASE_URL)
// 2. envFile, or ./.env when envFile is empty
// 3. Built-in defaults
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine: configuration may come from the environment directly.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Database: DatabaseConfig{
			URL:              v.GetString("database.url"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			AutoMigrate:      v.GetBool("database.auto_migrate"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
		},
		Storage: StorageConfig{
			Driver:                   strings.ToLower(v.GetString("storage.driver")),
			JournalCompressThreshold: v.GetInt("storage.journal_compress_threshold"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Inventory: InventoryConfig{
			DepletionPolicy: v.GetString("inventory.depletion_policy"),
			MissingLines:    v.GetString("inventory.missing_lines"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxUploadBytes:  v.GetInt64("http.max_upload_bytes"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("storage.driver", StoragePostgres)
	v.SetDefault("storage.journal_compress_threshold", 8*1024)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("inventory.depletion_policy", depletion.NewestFirstName)
	v.SetDefault("inventory.missing_lines", reconciliation.AssumeUnchangedName)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_upload_bytes", 10<<20)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.App.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL must be provided when STORAGE_DRIVER=postgres")
		}
		if c.Database.MaxConns < 1 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("invalid pool size: min %d, max %d", c.Database.MinConns, c.Database.MaxConns)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage.Driver)
	}

	if _, err := depletion.ByName(c.Inventory.DepletionPolicy); err != nil {
		return fmt.Errorf("INVENTORY_DEPLETION_POLICY: %w", err)
	}
	if _, ok := reconciliation.MissingLinePolicyByName(c.Inventory.MissingLines); !ok {
		return fmt.Errorf("INVENTORY_MISSING_LINES: unknown policy %q", c.Inventory.MissingLines)
	}

	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return errors.New("HTTP timeouts must be positive")
	}
	return nil
}

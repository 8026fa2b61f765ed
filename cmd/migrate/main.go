// Package main provides CLI for schema migrations.
// Usage: migrate up
//        migrate down
//        migrate steps -1
//        migrate version
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/config"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "up", "down", "steps", "version":
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		return err
	}
	defer pool.Close()

	m, err := postgres.NewMigrator(pool, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) != 1 {
			return fmt.Errorf("steps requires a signed count, e.g. steps -1")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	default:
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d, dirty: %t\n", version, dirty)
		return nil
	}
}

func printUsage() {
	fmt.Println(`Stock Ledger Migration CLI

Usage:
  migrate <command> [args]

Commands:
  up        Apply all pending migrations
  down      Roll back all migrations
  steps N   Apply (N > 0) or roll back (N < 0) N migrations
  version   Print the current schema version
  help      Show this help

Environment Variables:
  DATABASE_URL   PostgreSQL connection string (required)
  ENV_FILE       Optional .env file to load first`)
}

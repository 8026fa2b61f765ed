// Package main provides a CLI tool for seeding the ledger with demo data.
//
// It creates a small flower catalog and one reception with batches, then,
// when AUTH_JWT_SECRET is set, prints a development access token.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/app"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/config"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/auth"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

type demoItem struct {
	product   string
	shelfLife int
	quantity  int64
	price     string
}

var demoItems = []demoItem{
	{product: "Rose Red 60cm", shelfLife: 7, quantity: 100, price: "85.00"},
	{product: "Tulip Mix", shelfLife: 5, quantity: 150, price: "42.50"},
	{product: "Chrysanthemum", shelfLife: 14, quantity: 40, price: "120.00"},
	{product: "Eucalyptus", shelfLife: 10, quantity: 30, price: "65.00"},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	services, err := app.NewServices(storage, cfg)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	if err := seedDemoData(ctx, services.Products, services.Receptions, services.Batches, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	if cfg.Auth.Enabled() {
		if err := printDevToken(cfg); err != nil {
			log.Fatalw("failed to issue token", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedDemoData(
	ctx context.Context,
	products *product.Service,
	receptions *reception.Service,
	batches *batch.Service,
	log *logger.Logger,
) error {
	today := types.DateOf(time.Now().UTC())
	supplier := "Demo Flowers Ltd"
	rec, err := receptions.Create(ctx, reception.Details{
		Name:          "Demo delivery " + today.Format(time.DateOnly),
		ReceptionDate: &today,
		Supplier:      &supplier,
	})
	if err != nil {
		return fmt.Errorf("create reception: %w", err)
	}

	inputs := make([]batch.CreateInput, 0, len(demoItems))
	for _, item := range demoItems {
		productID, err := ensureProduct(ctx, products, item)
		if err != nil {
			return err
		}
		price, err := types.NewMoneyFromString(item.price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", item.product, err)
		}
		inputs = append(inputs, batch.CreateInput{
			ReceptionID:     rec.ID,
			ProductID:       productID,
			QuantityInitial: item.quantity,
			PricePerUnit:    price,
		})
	}

	created, err := batches.CreateBatches(ctx, rec.ID, inputs)
	if err != nil {
		return fmt.Errorf("create batches: %w", err)
	}

	log.Infow("demo reception seeded", "reception_id", rec.ID, "batches", len(created))
	return nil
}

func ensureProduct(ctx context.Context, products *product.Service, item demoItem) (id.ID, error) {
	existing, err := products.Resolve(ctx, item.product)
	if err == nil {
		return existing.ID, nil
	}
	if !apperror.IsNotFound(err) {
		return id.ID{}, fmt.Errorf("look up product %s: %w", item.product, err)
	}

	shelfLife := item.shelfLife
	p, err := products.Create(ctx, item.product, &shelfLife)
	if err != nil {
		return id.ID{}, fmt.Errorf("create product %s: %w", item.product, err)
	}
	return p.ID, nil
}

func printDevToken(cfg *config.Config) error {
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.Issuer = cfg.Auth.Issuer
	jwtConfig.AccessTokenTTL = 24 * time.Hour

	token, expiresAt, err := auth.NewJWTService(jwtConfig).
		GenerateAccessToken("seed-admin", "Seed Admin", []string{"admin"})
	if err != nil {
		return err
	}
	fmt.Printf("dev token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), token)
	return nil
}

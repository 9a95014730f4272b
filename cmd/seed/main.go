// Package main provides a CLI tool for seeding the database with a sample
// promotion catalogue.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/types"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/storage/postgres"
	"motodealer/internal/infrastructure/storage/postgres/promotion_repo"
	"motodealer/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	engine, err := promotion.NewEligibilityEngine()
	if err != nil {
		log.Fatalw("failed to create eligibility engine", "error", err)
	}
	svc := promotion.NewService(
		promotion_repo.New(postgres.NewTxManager(pool)),
		engine,
		promotion.NewComposer(promotion.OverlapCardOnly),
	)

	created, err := seedPromotions(ctx, svc, samplePromotions())
	if err != nil {
		log.Fatalw("failed to seed promotions", "error", err)
	}

	log.Infow("seeding completed successfully", "created", created)
}

// seedPromotions creates every promotion whose name is not in the catalogue yet.
func seedPromotions(ctx context.Context, svc *promotion.Service, seeds []promotion.Promotion) (int, error) {
	existing, err := svc.List(ctx, promotion.Filter{})
	if err != nil {
		return 0, fmt.Errorf("list promotions: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		names[p.Name] = struct{}{}
	}

	created := 0
	for i := range seeds {
		p := seeds[i]
		if _, ok := names[p.Name]; ok {
			logger.Info(ctx, "promotion already exists", "name", p.Name)
			continue
		}
		if err := svc.Create(ctx, &p); err != nil {
			return created, fmt.Errorf("create %q: %w", p.Name, err)
		}
		created++
	}
	return created, nil
}

func samplePromotions() []promotion.Promotion {
	rate := func(s string) *decimal.Decimal {
		d := types.MustMoney(s)
		return &d
	}
	plan := func(n int, r string) promotion.InstallmentPlan {
		return promotion.InstallmentPlan{Installments: n, InterestRate: types.MustMoney(r), IsEnabled: true}
	}
	cards := []promotion.PaymentMethod{promotion.PaymentCreditCard}

	return []promotion.Promotion{
		{
			Name:           "Contado efectivo 10%",
			Description:    "Descuento por pago en efectivo",
			DiscountRate:   rate("10"),
			PaymentMethods: []promotion.PaymentMethod{promotion.PaymentCash},
			IsEnabled:      true,
		},
		{
			Name:           "Transferencia 5%",
			DiscountRate:   rate("5"),
			PaymentMethods: []promotion.PaymentMethod{promotion.PaymentTransfer},
			IsEnabled:      true,
		},
		{
			Name:             "Galicia 3 y 6 sin interes",
			Bank:             "Galicia",
			InstallmentPlans: []promotion.InstallmentPlan{plan(3, "0"), plan(6, "0")},
			PaymentMethods:   cards,
			IsEnabled:        true,
		},
		{
			Name:             "Nacion 12 cuotas",
			Bank:             "Nacion",
			InstallmentPlans: []promotion.InstallmentPlan{plan(6, "15"), plan(12, "30")},
			PaymentMethods:   cards,
			IsEnabled:        true,
		},
		{
			Name:           "Martes Visa 5%",
			DiscountRate:   rate("5"),
			Eligibility:    `card_brand == "visa" && weekday == "tuesday"`,
			PaymentMethods: cards,
			IsEnabled:      true,
		},
		{
			Name:             "Recargo tarjeta 18 cuotas",
			SurchargeRate:    rate("12"),
			InstallmentPlans: []promotion.InstallmentPlan{plan(18, "45")},
			PaymentMethods:   cards,
			Eligibility:      `amount >= 500000.0`,
			IsEnabled:        true,
		},
	}
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

// Package main loads the starter catalog into PostgreSQL. Items are upserted
// by a slug of their name, so re-running the seed updates rather than
// duplicates them.
//
// Run: go run ./cmd/seed [-token user-id]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/auth"
	"github.com/Penlika/CoffeeShopApp/internal/config"
	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/repository/postgres"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
	"github.com/Penlika/CoffeeShopApp/pkg/logger"
	"github.com/Penlika/CoffeeShopApp/pkg/slug"
)

type seedItem struct {
	kind        domain.ItemKind
	name        string
	description string
	roasted     string
	ingredients string
	special     string
	prices      []domain.PriceVariant
}

func sizes(s, m, l float64) []domain.PriceVariant {
	return []domain.PriceVariant{
		{Size: "S", Price: s, Currency: "$"},
		{Size: "M", Price: m, Currency: "$"},
		{Size: "L", Price: l, Currency: "$"},
	}
}

var catalog = []seedItem{
	{domain.KindCoffee, "Americano", "Espresso shots topped with hot water.", "Medium Roasted", "Espresso", "With Steamed Milk", sizes(1.38, 3.15, 4.29)},
	{domain.KindCoffee, "Cappuccino", "Espresso with steamed milk and a deep layer of foam.", "Medium Roasted", "Milk", "With Steamed Milk", sizes(2.5, 3.5, 4.5)},
	{domain.KindCoffee, "Caffè Latte", "Rich espresso balanced with steamed milk.", "Light Roasted", "Milk", "With Foam", sizes(2.9, 3.9, 4.9)},
	{domain.KindCoffee, "Espresso", "A concentrated shot with a golden crema.", "Dark Roasted", "Espresso", "With Crema", sizes(1.5, 2.1, 2.8)},
	{domain.KindCoffee, "Macchiato", "Espresso marked with a dollop of foam.", "Medium Roasted", "Milk", "With Foam", sizes(2.2, 3.0, 3.9)},
	{domain.KindTea, "Matcha Latte", "Stone-ground green tea whisked into steamed milk.", "", "Matcha", "With Oat Milk", sizes(3.2, 4.0, 4.8)},
	{domain.KindTea, "Chai Tea Latte", "Black tea infused with cinnamon, clove and warm spices.", "", "Black Tea", "With Steamed Milk", sizes(2.9, 3.7, 4.5)},
	{domain.KindTea, "Earl Grey", "Black tea scented with bergamot.", "", "Black Tea", "With Lemon", sizes(1.9, 2.4, 2.9)},
	{domain.KindBlendedBeverages, "Caramel Frappuccino", "Coffee blended with caramel syrup and ice.", "Medium Roasted", "Caramel", "With Whipped Cream", sizes(3.9, 4.6, 5.3)},
	{domain.KindBlendedBeverages, "Mocha Cookie Crumble", "Mocha sauce and cookie pieces blended with coffee.", "Dark Roasted", "Chocolate", "With Cookie Crumble", sizes(4.2, 4.9, 5.6)},
	{domain.KindMilkJuiceMore, "Hot Chocolate", "Steamed milk with mocha sauce.", "", "Chocolate", "With Whipped Cream", sizes(2.6, 3.3, 3.9)},
	{domain.KindMilkJuiceMore, "Orange Juice", "Freshly squeezed oranges.", "", "Orange", "No Added Sugar", sizes(2.8, 3.6, 4.4)},
}

func main() {
	tokenFor := flag.String("token", "", "also print a 24h development token for this user ID")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("coffeeshop-seed", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *tokenFor != "" {
		token, err := auth.NewVerifier(cfg.JWTSecret).Issue(*tokenFor, *tokenFor+"@example.com", 24*time.Hour)
		if err != nil {
			log.Error("issue token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo := postgres.NewItemRepository(pool)
	for _, s := range catalog {
		item := &domain.Item{
			ID:                slug.Generate(s.name),
			Kind:              s.kind,
			Name:              s.name,
			Description:       s.description,
			Roasted:           s.roasted,
			Ingredients:       s.ingredients,
			SpecialIngredient: s.special,
			ImageURL:          fmt.Sprintf("https://cdn.coffeeshop.example/%s/%s.png", s.kind, slug.Generate(s.name)),
			Prices:            s.prices,
		}
		if err := repo.Upsert(ctx, item); err != nil {
			return fmt.Errorf("upsert %s: %w", item.Ref(), err)
		}
	}

	log.Info("catalog seeded", slog.Int("items", len(catalog)))
	return nil
}

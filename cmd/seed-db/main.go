// Command seed-db loads the flower catalog into PostgreSQL from a JSON
// file and optionally seeds the shop contact number. Safe to re-run;
// products are upserted by ID.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vkmflowers/backend/internal/domain/product"
	"github.com/vkmflowers/backend/internal/domain/settings"
	"github.com/vkmflowers/backend/internal/storage/postgres"
)

type productJSON struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	DurationHours int             `json:"durationHours"`
	Images        []string        `json:"images"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		contactPhone string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&contactPhone, "contact-phone", "", "shop contact number to seed (optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, contactPhone); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, contactPhone string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if contactPhone != "" {
		if err := seedContact(ctx, postgres.NewSettingsRepository(pool), contactPhone); err != nil {
			return errors.Wrap(err, "seed contact")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if p.ID == "" || p.Title == "" {
			return errors.Errorf("product entry missing id or title: %+v", p)
		}
		if p.DurationHours < 1 {
			return errors.Errorf("product %s: durationHours must be at least 1", p.ID)
		}
		if p.Price.IsNegative() {
			return errors.Errorf("product %s: price must not be negative", p.ID)
		}

		if err := repo.Upsert(ctx, &product.Product{
			ID:            p.ID,
			Title:         p.Title,
			Description:   p.Description,
			Price:         p.Price,
			DurationHours: p.DurationHours,
			Images:        p.Images,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
	}

	return nil
}

func seedContact(ctx context.Context, repo *postgres.SettingsRepository, phone string) error {
	if !settings.ValidPhone(phone) {
		return errors.Errorf("contact phone %q must be exactly 10 digits", phone)
	}

	slog.Info("seeding contact number", slog.String("phone", phone))
	return repo.SetContactPhone(ctx, phone)
}

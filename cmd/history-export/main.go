// Command history-export archives finished orders and custom requests
// as gzipped JSON files. With --purge the exported rows are deleted
// afterwards, keeping the live tables small while the archive holds the
// full history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
	"github.com/vkmflowers/backend/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		outDir      string
		purge       bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&outDir, "out", ".", "directory for the exported archives")
	flag.BoolVar(&purge, "purge", false, "delete exported rows after a successful export")
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

	if err := run(ctx, databaseURL, outDir, purge); err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, outDir string, purge bool) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	orderRepo := postgres.NewOrderRepository(pool, "", time.UTC)
	requestRepo := postgres.NewCustomRequestRepository(pool)

	stamp := time.Now().UTC().Format("20060102T150405Z")

	// The two ledgers are independent; export them in parallel.
	g, gctx := errgroup.WithContext(ctx)

	var orders []order.Order
	g.Go(func() error {
		var err error
		orders, err = orderRepo.ListByStatus(gctx, lifecycle.StatusCompleted, lifecycle.StatusCancelled)
		if err != nil {
			return errors.Wrap(err, "list finished orders")
		}
		path := filepath.Join(outDir, fmt.Sprintf("orders-%s.json.gz", stamp))
		if err := writeArchive(path, orders); err != nil {
			return err
		}
		slog.Info("exported orders", slog.Int("count", len(orders)), slog.String("path", path))
		return nil
	})

	var requests []customreq.CustomRequest
	g.Go(func() error {
		var err error
		requests, err = requestRepo.ListByStatus(gctx, lifecycle.StatusCompleted, lifecycle.StatusCancelled)
		if err != nil {
			return errors.Wrap(err, "list finished custom requests")
		}
		path := filepath.Join(outDir, fmt.Sprintf("custom-requests-%s.json.gz", stamp))
		if err := writeArchive(path, requests); err != nil {
			return err
		}
		slog.Info("exported custom requests", slog.Int("count", len(requests)), slog.String("path", path))
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if !purge {
		return nil
	}

	// Purge only after both archives are safely on disk.
	for _, o := range orders {
		if err := orderRepo.Delete(ctx, o.ID); err != nil {
			return errors.Wrapf(err, "purge order %s", o.ID)
		}
	}
	for _, r := range requests {
		if err := requestRepo.Delete(ctx, r.ID); err != nil {
			return errors.Wrapf(err, "purge custom request %s", r.ID)
		}
	}
	slog.Info("purged exported rows",
		slog.Int("orders", len(orders)),
		slog.Int("custom_requests", len(requests)))

	return nil
}

// writeArchive marshals v and writes it gzip-compressed to path.
func writeArchive(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}

	zw := pgzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "encode archive")
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "flush archive")
	}
	return errors.Wrap(f.Close(), "close archive")
}

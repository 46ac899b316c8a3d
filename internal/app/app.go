package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/order"
	"github.com/vkmflowers/backend/internal/domain/product"
	"github.com/vkmflowers/backend/internal/domain/query"
	"github.com/vkmflowers/backend/internal/domain/settings"
	"github.com/vkmflowers/backend/internal/handler"
	"github.com/vkmflowers/backend/internal/storage/memory"
	"github.com/vkmflowers/backend/internal/storage/postgres"
	"github.com/vkmflowers/backend/pkg/health"
	"github.com/vkmflowers/backend/pkg/httpmiddleware"
)

// repositories groups the storage implementations behind the domain
// interfaces, so wiring does not care which backend is active.
type repositories struct {
	orders   order.Repository
	requests customreq.Repository
	products product.Repository
	settings settings.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := time.LoadLocation(cfg.StoreTimezone)
	if err != nil {
		return errors.Wrap(err, "load store timezone")
	}

	healthSvc := health.New()

	var repos repositories
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		repos = repositories{
			orders:   postgres.NewOrderRepository(pool, cfg.BillPrefix, loc),
			requests: postgres.NewCustomRequestRepository(pool),
			products: postgres.NewProductRepository(pool),
			settings: postgres.NewSettingsRepository(pool),
		}
	} else {
		lg.Warn("No database URL configured, using in-memory store")
		repos = repositories{
			orders:   memory.NewOrderRepository(cfg.BillPrefix, loc),
			requests: memory.NewCustomRequestRepository(),
			products: memory.NewProductRepository(),
			settings: memory.NewSettingsRepository(),
		}
	}

	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	orderService := order.NewService(repos.products, repos.orders)
	requestService := customreq.NewService(repos.requests, cfg.CustomRequestSLA)
	queryFacade := query.NewFacade(repos.orders, repos.requests)
	settingsService := settings.NewService(repos.settings)

	// HTTP handlers.
	h, err := handler.NewHandler(
		orderService,
		requestService,
		queryFacade,
		settingsService,
		repos.products,
		m.MeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	wrapped := httpmiddleware.Wrap(mux,
		httpmiddleware.Recover(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "X-User-ID", "X-User-Role"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           24 * time.Hour,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		handler.Identity(),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(wrapped, "vkm-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

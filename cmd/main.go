package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/salesboard/internal/adapters/http/api"
	"github.com/okian/salesboard/internal/adapters/http/swagger"
	"github.com/okian/salesboard/internal/adapters/identity"
	"github.com/okian/salesboard/internal/adapters/scheduler"
	"github.com/okian/salesboard/internal/adapters/warehouse"
	service "github.com/okian/salesboard/internal/app"
	"github.com/okian/salesboard/internal/config"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	connectTimeout    = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("salesboard: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()

	wh, err := warehouse.Open(connectCtx, cfg.WarehouseDriver, cfg.WarehouseDSN,
		warehouse.WithQueryTimeout(cfg.QueryTimeout()),
		warehouse.WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpen()),
		warehouse.WithTables(warehouse.Tables{
			Leaderboard: cfg.LeaderboardTable,
			Cutoff:      cfg.CutoffTable,
			Zones:       cfg.ZoneTable,
		}),
	)
	if err != nil {
		return err
	}
	defer func() { _ = wh.Close() }()

	resolver, zones, closeIdentity, err := openIdentity(connectCtx, cfg, wh, log)
	if err != nil {
		return err
	}
	defer closeIdentity()

	svc := service.New(wh,
		service.WithLogger(log),
		service.WithRegistry(registry),
		service.WithCheckInterval(cfg.StaleCheck()),
		service.WithRetryInterval(cfg.StaleRetry()),
		service.WithCompetitionLimit(cfg.CompetitionLimit),
		service.WithSummaryDivisions(cfg.SummaryDivisions),
	)
	// Warm-up runs in the background; reads fall back to the warehouse meanwhile.
	warm := svc.Start(ctx)
	defer svc.Stop()
	go func() {
		if err := <-warm; err != nil {
			log.Warn(ctx, "cache warm-up failed; serving from the warehouse", logger.Error(err))
		}
	}()

	jobs := scheduler.New(scheduler.WithLogger(log))
	if err := jobs.Add("cache_freshness", cfg.RefreshSchedule, func(context.Context) { svc.MaybeRefresh() }); err != nil {
		return err
	}
	if err := jobs.Add("zone_preload", scheduler.DefaultZoneSpec, func(ctx context.Context) {
		regions, err := svc.GetRegions(ctx)
		if err != nil {
			log.Warn(ctx, "zone preload skipped", logger.Error(err))
			return
		}
		log.Info(ctx, "zones preloaded", logger.Int("regions", zones.Preload(ctx, regions)))
	}); err != nil {
		return err
	}
	jobs.Start()

	metrics.StartSystemCollector(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, resolver,
		api.WithLogger(log),
		api.WithDefaultCompetition(cfg.DefaultCompetition),
	).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "scheduler shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// openIdentity wires the token verifier with the optional slot store and
// shared cache. Missing Postgres or Redis settings degrade to the token
// profile and process memory.
func openIdentity(ctx context.Context, cfg *config.Config, wh *warehouse.Warehouse, log logger.Logger) (*identity.Resolver, *identity.ZoneCache, func(), error) {
	verifier, err := identity.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, nil, nil, err
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var slots identity.SlotLookup
	if cfg.PostgresDSN != "" {
		store, err := identity.OpenSlotStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, store.Close)
		slots = store
	} else {
		log.Warn(ctx, "postgres_dsn not set; identities come from the token only")
	}

	var cache identity.Cache
	if cfg.RedisURL != "" {
		rc, err := identity.OpenRedisCache(ctx, cfg.RedisURL, cfg.IdentityCacheTTL())
		if err != nil {
			log.Warn(ctx, "redis unavailable; using in-memory identity cache", logger.Error(err))
		} else {
			closers = append(closers, func() { _ = rc.Close() })
			cache = rc
		}
	}
	if cache == nil {
		cache = identity.NewMemoryCache(cfg.IdentityCacheTTL())
	}

	zones := identity.NewZoneCache(wh, cfg.ZoneCacheTTL())
	return identity.NewResolver(verifier, slots, zones, cache), zones, closeAll, nil
}

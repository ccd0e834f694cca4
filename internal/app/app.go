package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/auth"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/transport/middleware"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/transport/rest"
)

// adminTokenTTL only matters for tokens minted locally; the server verifies
// tokens issued elsewhere.
const adminTokenTTL = 15 * time.Minute

// Run is the application entry point. It loads configuration, connects to
// the database, starts the sync scheduler and serves HTTP until ctx is
// canceled, then shuts everything down within the configured timeout.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.Bool("sync_enabled", cfg.MySideline.Enabled),
		slog.Bool("admin_enabled", cfg.Auth.AdminEnabled()),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := prometheus.Register(postgres.NewPoolCollector(pool)); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	syncer := NewSync(cfg.MySideline, pool, logger)
	if err := syncer.Service.Start(ctx); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	deps := rest.RouterDeps{
		Health:  rest.NewHealthHandler(pool, syncer.Fetcher, BuildVersion()),
		Limiter: limiter,
		Logger:  logger,
	}
	if cfg.Auth.AdminEnabled() {
		deps.Sync = rest.NewSyncHandler(syncer.Service, logger)
		deps.Auth = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, adminTokenTTL)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      rest.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("http server failed", slog.String("error", serveErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.String("error", err.Error()))
	}
	if err := syncer.Service.Stop(shutdownCtx); err != nil {
		logger.Warn("sync stop", slog.String("error", err.Error()))
	}

	logger.Info("stopped")
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/library-gateway/internal/api/http"
	"github.com/spec-kit/library-gateway/internal/api/http/handlers"
	"github.com/spec-kit/library-gateway/internal/auth"
	"github.com/spec-kit/library-gateway/internal/config"
	"github.com/spec-kit/library-gateway/internal/observability"
	"github.com/spec-kit/library-gateway/internal/persistence"
	"github.com/spec-kit/library-gateway/internal/repository"
	"github.com/spec-kit/library-gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	verifier, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.ClockSkew)
	if err != nil {
		logger.Fatal("failed to init credential verifier", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	cookie := auth.CredentialCookie{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	identityService := service.NewIdentityService(userRepo, redis.ClientHandle(), cfg.Auth.IdentityCacheTTL, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			handlers.DependencyCheck{Name: "postgres", Pinger: pg},
			handlers.DependencyCheck{Name: "redis", Pinger: redis},
		),
		Identity:    handlers.NewIdentityHandler(),
		Pages:       handlers.NewPageHandler(cfg.Upstream.URL, logger),
		Credentials: auth.NewCredentialMiddleware(verifier, cookie, identityService),
		Gateway:     auth.NewGatewayMiddleware(auth.NewGateway(verifier), cookie, logger, metrics),
	})

	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.App.Addr()), zap.String("upstream", cfg.Upstream.URL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/pezhmanazar/phoenix-admin/internal/api/http"
	"github.com/pezhmanazar/phoenix-admin/internal/api/http/handlers"
	"github.com/pezhmanazar/phoenix-admin/internal/auth"
	"github.com/pezhmanazar/phoenix-admin/internal/config"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
	"github.com/pezhmanazar/phoenix-admin/internal/persistence"
)

// multipart framing around the largest accepted attachment
const bodyLimitSlack = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	guard := redis.ReplyGuard(cfg.Session.ReplyLockTTL())

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.MaxUploadBytes + bodyLimitSlack,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Backend.BaseURL, redis, metrics),
		Proxy: handlers.NewProxyHandler(cfg.Backend.BaseURL, httptransport.APIPrefix,
			cfg.Backend.Timeout(), guard, metrics, logger),
		Session: auth.NewSessionMiddleware(cfg.Session.CookieName, auth.NewTokenInspector(30*time.Second)),
	})

	go func() {
		logger.Info("admin proxy listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("backend", cfg.Backend.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

// Package main - точка входа API-сервера StudyBuddy Hub.
//
// Сервер отдаёт карточки профиля (уровень, опыт, серии, бейджи), принимает
// прогресс по ресурсам и выбор бейджа. Карточки кешируются в Redis, события
// прогресса расходятся через шину (in-memory или Redis Pub/Sub).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studybuddy/studybuddy-hub/config"
	"github.com/studybuddy/studybuddy-hub/internal/bootstrap"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/persistence/postgres"
	httpapi "github.com/studybuddy/studybuddy-hub/internal/interface/http"
	"github.com/studybuddy/studybuddy-hub/internal/interface/http/handlers"
	"github.com/studybuddy/studybuddy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := bootstrap.NewLogger(cfg, os.Stdout)
	log.Info("starting StudyBuddy Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.Progress.TimeZone),
		logger.String("events", cfg.Events.Mode),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЯ (PostgreSQL, Redis, шина событий)
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := bootstrap.Connect(ctx, cfg, log.Slog())
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			log.Warn("error during shutdown", logger.Err(cerr))
		}
	}()
	if err != nil {
		return err
	}
	if infra.Redis == nil {
		log.Warn("redis disabled, profile cards will not be cached")
	}

	if cfg.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(infra.DB).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations applied", logger.Int("count", applied))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПРИКЛАДНОЙ СЛОЙ
	// ─────────────────────────────────────────────────────────────────────────
	svc, err := bootstrap.Wire(cfg, bootstrap.PostgresStores(infra.DB), infra.ProfileCache(), infra.Bus, log.Slog())
	if err != nil {
		return err
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.PingCheck(infra.DB))
	if infra.Redis != nil {
		health.AddOptionalCheck("redis", handlers.PingCheck(infra.Redis))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		AllowedOrigins:     cfg.HTTP.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Version:            cfg.App.Version,
	}, httpapi.Dependencies{
		GetProfileCard: svc.GetProfileCard,
		ResolveLevel:   svc.ResolveLevel,
		RecordProgress: svc.RecordProgress,
		EquipBadge:     svc.EquipBadge,
		HealthChecker:  health,
		Logger:         log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОЖИДАНИЕ СИГНАЛА ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("StudyBuddy Hub API stopped")
	return nil
}

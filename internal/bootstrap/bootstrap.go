// Package bootstrap wires configuration, storage, the event bus and the
// application handlers together. Both the API server and the CLI use it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/studybuddy/studybuddy-hub/config"
	"github.com/studybuddy/studybuddy-hub/internal/application/command"
	"github.com/studybuddy/studybuddy-hub/internal/application/eventhandler"
	"github.com/studybuddy/studybuddy-hub/internal/application/query"
	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/messaging"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/persistence/postgres"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/persistence/redis"
	"github.com/studybuddy/studybuddy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER & CONFIG MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	if out == nil {
		out = os.Stdout
	}
	return logger.New(logger.Options{
		Output:    out,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    cfg.Observability.LogFormat,
		AddSource: cfg.IsDevelopment(),
	}).With(
		logger.String("service", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
}

// PostgresConfig maps application config onto the connection config.
func PostgresConfig(cfg config.DatabaseConfig) postgres.Config {
	pg := postgres.DefaultConfig()
	pg.URL = cfg.URL
	pg.Host = cfg.Host
	pg.Port = cfg.Port
	pg.Database = cfg.Name
	pg.User = cfg.User
	pg.Password = cfg.Password
	pg.SSLMode = cfg.SSLMode
	pg.MaxConns = cfg.MaxConns
	pg.MinConns = cfg.MinConns
	pg.MaxConnLifetime = cfg.ConnMaxLifetime
	pg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	pg.ConnectTimeout = cfg.ConnectTimeout
	pg.ConnectAttempts = cfg.ConnectAttempts
	return pg
}

// RedisConfig maps application config onto the cache config.
func RedisConfig(cfg config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = cfg.URL
	rc.Host = cfg.Host
	rc.Port = cfg.Port
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	rc.PoolSize = cfg.PoolSize
	rc.MinIdleConns = cfg.MinIdleConns
	rc.DialTimeout = cfg.DialTimeout
	rc.ReadTimeout = cfg.ReadTimeout
	rc.WriteTimeout = cfg.WriteTimeout
	rc.ConnectAttempts = cfg.ConnectAttempts
	return rc
}

// NewEngine builds the progress engine from configuration.
func NewEngine(cfg config.ProgressConfig) (*progress.Engine, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return progress.NewEngine(engineCfg), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is a bus that can be shut down.
type EventBus interface {
	shared.EventBus
	io.Closer
}

// NewEventBus creates the bus for the configured mode. Redis mode needs cache.
func NewEventBus(ctx context.Context, cfg config.EventsConfig, cache *redis.Cache, log *slog.Logger) (EventBus, error) {
	local := messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: cfg.WorkerPoolSize,
		Logger:         log,
	}

	switch cfg.Mode {
	case config.EventsModeRedis:
		if cache == nil {
			return nil, errors.New("redis event bus requires a redis connection")
		}
		bus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
			Client:         cache.Client(),
			Channel:        cfg.Channel,
			LocalBusConfig: local,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		if log != nil {
			log.Info("redis event bus started", "instance_id", bus.InstanceID(), "channel", cfg.Channel)
		}
		return bus, nil
	default:
		return messaging.NewInMemoryEventBus(local), nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION SERVICES
// ══════════════════════════════════════════════════════════════════════════════

// Stores groups the repositories the services read and write.
type Stores struct {
	Progress progress.ProgressRepository
	Stats    progress.UserStatsRepository
	Badges   progress.BadgeRepository
}

// PostgresStores builds the repositories on a database connection.
func PostgresStores(db postgres.Querier) Stores {
	return Stores{
		Progress: postgres.NewProgressRepository(db),
		Stats:    postgres.NewUserStatsRepository(db),
		Badges:   postgres.NewBadgeRepository(db),
	}
}

// Services holds the query and command handlers.
type Services struct {
	Engine         *progress.Engine
	GetProfileCard *query.GetProfileCardHandler
	ResolveLevel   *query.ResolveLevelHandler
	RecordProgress *command.RecordProgressHandler
	EquipBadge     *command.EquipBadgeHandler
	ProfileEvents  *eventhandler.ProfileEventsHandler
}

// Wire builds the handlers and subscribes the event handlers to bus.
// cache may be nil.
func Wire(cfg *config.Config, stores Stores, cache progress.ProfileCache, bus shared.EventBus, log *slog.Logger) (*Services, error) {
	engine, err := NewEngine(cfg.Progress)
	if err != nil {
		return nil, err
	}

	source := progress.NewProfileSource(stores.Progress, stores.Stats, stores.Badges)
	profiles := query.NewGetProfileCardHandler(source, engine, cache, cfg.Progress.CacheTTL, log)

	svc := &Services{
		Engine:         engine,
		GetProfileCard: profiles,
		ResolveLevel:   query.NewResolveLevelHandler(engine.Levels()),
		RecordProgress: command.NewRecordProgressHandler(stores.Progress, profiles, cache, bus, log),
		EquipBadge:     command.NewEquipBadgeHandler(source, engine, stores.Badges, bus, log),
		ProfileEvents:  eventhandler.NewProfileEventsHandler(cache, profiles, bus, cfg.Progress.CacheTTL, log),
	}

	if err := svc.ProfileEvents.Register(bus); err != nil {
		return nil, fmt.Errorf("register event handlers: %w", err)
	}
	return svc, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INFRASTRUCTURE
// ══════════════════════════════════════════════════════════════════════════════

// Infra holds the live connections of a process.
type Infra struct {
	DB    *postgres.Connection
	Redis *redis.Cache
	Bus   EventBus
}

// Connect opens Postgres, Redis (unless disabled) and the event bus.
// Call Close when done, also after an error.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Infra, error) {
	infra := &Infra{}

	db, err := postgres.NewConnection(ctx, PostgresConfig(cfg.Database), log)
	if err != nil {
		return infra, fmt.Errorf("connect postgres: %w", err)
	}
	infra.DB = db

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(ctx, RedisConfig(cfg.Redis), log)
		if err != nil {
			return infra, fmt.Errorf("connect redis: %w", err)
		}
		infra.Redis = cache
	}

	bus, err := NewEventBus(ctx, cfg.Events, infra.Redis, log)
	if err != nil {
		return infra, fmt.Errorf("event bus: %w", err)
	}
	infra.Bus = bus

	return infra, nil
}

// ProfileCache returns the Redis-backed profile cache, or nil without Redis.
func (i *Infra) ProfileCache() progress.ProfileCache {
	if i.Redis == nil {
		return nil
	}
	return redis.NewProfileCache(i.Redis)
}

// Close shuts everything down in reverse order of Connect.
func (i *Infra) Close() error {
	var errs []error
	if i.Bus != nil {
		errs = append(errs, i.Bus.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		i.DB.Close()
	}
	return errors.Join(errs...)
}

// Package main - точка входа для EduSmart Learning Progress & Achievement Engine.
//
// Сервис принимает события завершения учебных ресурсов со всех платформ
// EduSmart, дедуплицирует их, начисляет XP, ведёт стрики и уровни,
// открывает достижения и отдаёт read-модели прогресса через REST API.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Event Handlers)
// - Infrastructure: PostgreSQL, Redis, event bus
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edusmart/progress-engine/config"

	// Application layer
	"github.com/edusmart/progress-engine/internal/application/command"
	"github.com/edusmart/progress-engine/internal/application/eventhandler"
	"github.com/edusmart/progress-engine/internal/application/query"

	// Domain layer
	"github.com/edusmart/progress-engine/internal/domain/identity"
	"github.com/edusmart/progress-engine/internal/domain/shared"

	// Infrastructure layer
	"github.com/edusmart/progress-engine/internal/infrastructure/messaging"
	"github.com/edusmart/progress-engine/internal/infrastructure/persistence/memory"
	"github.com/edusmart/progress-engine/internal/infrastructure/persistence/postgres"
	"github.com/edusmart/progress-engine/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/edusmart/progress-engine/internal/interface/http"
	"github.com/edusmart/progress-engine/internal/interface/http/handlers"

	// Packages
	"github.com/edusmart/progress-engine/pkg/logger"
)

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
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
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting EduSmart progress engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed",
			logger.Int("applied", appliedCount),
			logger.Int("total", len(status)),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.MinIdleConns > 0 {
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		}
		if cfg.Redis.DialTimeout > 0 {
			redisCfg.DialTimeout = cfg.Redis.DialTimeout
		}
		if cfg.Redis.ReadTimeout > 0 {
			redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		}
		if cfg.Redis.WriteTimeout > 0 {
			redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Redis ускоряет чтения и раздаёт события между инстансами,
			// но движок полностью работоспособен и без него.
			log.Warn("failed to connect to Redis, running degraded", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	eventRepo := postgres.NewEventRepository(dbConn)
	statsRepo := postgres.NewUserStatsRepository(dbConn)
	courseRepo := postgres.NewCourseProgressRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. КЭШИ И СЕССИИ
	// ─────────────────────────────────────────────────────────────────────────
	var domainStatsCache query.DomainStatsCache
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureStatsCache, nil) {
		domainStatsCache = redis.NewStatsCache(redisCache, log)
		log.Info("domain stats cache enabled")
	}

	var sessions identity.SessionStore
	if redisCache != nil {
		sessions = redis.NewSessionStore(redisCache)
	} else {
		// Без Redis сессии живут в памяти процесса: годится для
		// разработки и single-instance деплоя.
		memSessions := memory.NewSessionStore()
		defer memSessions.Close()
		sessions = memSessions
		log.Warn("using in-memory session store, sessions will not survive restarts")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.AsyncMode = cfg.EventBus.AsyncMode
	busCfg.WorkerPoolSize = cfg.EventBus.WorkerPoolSize
	busCfg.Logger = log
	localBus := messaging.NewInMemoryEventBus(busCfg)

	var eventBus shared.EventBus = localBus
	if cfg.EventBus.UseRedis && redisCache != nil && cfg.Features.IsEnabled(config.FeatureEventBusRedis, nil) {
		redisBus := messaging.NewRedisEventBus(redisCache, localBus, log)
		defer func() {
			log.Info("closing event bus...")
			_ = redisBus.Close()
		}()
		eventBus = redisBus
		log.Info("Redis event fan-out enabled")
	} else {
		defer func() {
			log.Info("closing event bus...")
			_ = localBus.Close()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПОДПИСКИ НА ДОМЕННЫЕ СОБЫТИЯ
	// ─────────────────────────────────────────────────────────────────────────
	if domainStatsCache != nil {
		onCompletion := eventhandler.NewOnCompletionRecordedHandler(domainStatsCache, log)
		if err := eventBus.Subscribe(shared.EventCompletionRecorded, onCompletion.Handle); err != nil {
			return fmt.Errorf("failed to subscribe completion handler: %w", err)
		}
	}

	onUnlocked := eventhandler.NewOnAchievementUnlockedHandler(log)
	if err := eventBus.Subscribe(shared.EventAchievementUnlocked, onUnlocked.Handle); err != nil {
		return fmt.Errorf("failed to subscribe achievement handler: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventLevelUp, onUnlocked.Handle); err != nil {
		return fmt.Errorf("failed to subscribe level-up handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	ingestHandler := command.NewIngestCompletionHandler(
		eventRepo,
		statsRepo,
		courseRepo,
		achievementRepo,
		catalogRepo,
		eventBus,
		log,
	)
	loginHandler := command.NewLoginHandler(userRepo, sessions, cfg.Session.TTL, log)
	registerHandler := command.NewRegisterHandler(userRepo, log)

	courseProgressHandler := query.NewGetCourseProgressHandler(courseRepo, catalogRepo)
	domainStatsHandler := query.NewGetDomainStatsHandler(eventRepo, domainStatsCache, log)
	userStatsHandler := query.NewGetUserStatsHandler(statsRepo)
	achievementsHandler := query.NewGetAchievementsHandler(achievementRepo)
	heatmapHandler := query.NewGetActivityHeatmapHandler(eventRepo)
	timelineHandler := query.NewGetTimelineHandler(eventRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ИНИЦИАЛИЗАЦИЯ HTTP СЕРВЕРА
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	serverCfg.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	serverCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.RegistrationOpen = cfg.Features.IsEnabled(config.FeatureAuthRegistration, nil)

	httpServer := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		IngestCompletionHandler:   ingestHandler,
		LoginHandler:              loginHandler,
		RegisterHandler:           registerHandler,
		GetCourseProgressHandler:  courseProgressHandler,
		GetDomainStatsHandler:     domainStatsHandler,
		GetUserStatsHandler:       userStatsHandler,
		GetAchievementsHandler:    achievementsHandler,
		GetActivityHeatmapHandler: heatmapHandler,
		GetTimelineHandler:        timelineHandler,
		Sessions:                  sessions,
		Logger:                    log,
		HealthChecker:             healthChecker,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 13. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting HTTP server", logger.String("address", httpServer.Address()))
	errCh := httpServer.StartAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("root context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	log.Info("shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", logger.Err(err))
	}

	log.Info("shutdown complete")
	return nil
}

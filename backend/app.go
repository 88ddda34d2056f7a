package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/mongostore"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all application dependencies and state
type Application struct {
	Config    *config.Config
	DB        *database.DatabasePool
	Mongo     *mongostore.Store
	Cache     cache.Cache
	Redis     *redis.Client
	Pool      *cache.WorkerPool
	Scheduler *cache.JobScheduler
	Limiter   *middleware.DistributedRateLimiter
	Tokens    *auth.TokenManager
	Router    *gin.Engine
	Server    *http.Server

	Users repositories.UserRepository
	Tasks repositories.TaskRepository

	// Services
	TaskService     *services.CachedTaskService
	AuthService     services.AuthService
	UserService     services.UserService
	RegisterService services.RegisterService
	ReportService   services.ReportService
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	log.Println("🚀 Initializing Taskboard Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	if err := app.connectStore(); err != nil {
		return nil, err
	}

	app.connectRedis()

	var redisCache *cache.RedisCache
	if app.Redis != nil {
		redisCache = cache.NewRedisCache(app.Redis, "taskboard:")
		app.Limiter = middleware.NewDistributedRateLimiter(app.Redis)
		log.Println("✅ Multi-level cache initialized (Memory L1 + Redis L2)")
	} else {
		log.Println("✅ Memory cache initialized")
	}
	app.Cache = cache.NewMultiLevelCache(redisCache, cfg.Cache.DashboardTTL)

	app.Pool = cache.NewWorkerPool(cfg.Cache.WarmupWorkers, app.Cache)
	app.Pool.Start()

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Initialize Services
	p := policy.New(cfg.Policy)
	app.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	app.AuthService = services.NewAuthService(app.Users, app.Tokens)
	app.RegisterService = services.NewRegisterService(app.Users, cfg.Auth.AdminJoinCode)
	app.UserService = services.NewUserService(app.Users, app.Tasks, p)
	app.ReportService = services.NewReportService(app.Tasks, app.Users, p)

	app.TaskService = services.NewCachedTaskService(
		services.NewTaskService(app.Tasks, app.Users, p),
		services.NewDashboardService(app.Tasks, p),
		app.Cache,
		app.Pool,
		cfg.Cache.DashboardTTL,
	)

	app.Scheduler = cache.NewJobScheduler(app.Pool)
	if cfg.Cache.RefreshInterval > 0 {
		app.Scheduler.AddIntervalTrigger("global-dashboard", cfg.Cache.RefreshInterval, func() cache.WarmupJob {
			return app.TaskService.WarmupJob(services.GlobalScope())
		})
	}
	app.Scheduler.Start()

	app.registerMonitoring()

	log.Println("✅ All services initialized")

	return app, nil
}

func (app *Application) connectStore() error {
	cfg := app.Config

	switch cfg.Database.Driver {
	case "mongo":
		store, err := mongostore.Connect(context.Background(), cfg.Database.MongoURI, cfg.Database.Name)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		app.Mongo = store
		app.Users = store.Users()
		app.Tasks = store.Tasks()

	default:
		pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg.Database))
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		app.DB = pool
		log.Println("✅ Database connected and configured")

		if cfg.Database.AutoMigrate {
			if err := repositories.RunMigrations(pool.DB, migrationConfig(cfg)); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
		}

		app.Users = repositories.NewGormUserRepository(pool.DB)
		app.Tasks = repositories.NewGormTaskRepository(pool.DB)
	}

	return nil
}

func (app *Application) connectRedis() {
	cfg := app.Config
	if !cfg.Redis.Enabled {
		log.Println("📋 Redis disabled, using memory cache only")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (continuing with memory cache only)", err)
		_ = client.Close()
		return
	}

	app.Redis = client
	log.Println("✅ Redis connected")
}

func (app *Application) registerMonitoring() {
	if app.DB != nil {
		monitoring.RegisterHealthCheck("database", app.DB.Health)
		monitoring.RegisterStats("database", func() interface{} { return app.DB.Stats() })
	}
	if app.Mongo != nil {
		monitoring.RegisterHealthCheck("database", app.Mongo.Health)
	}
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}
	if app.Limiter != nil {
		monitoring.RegisterStats("rate_limiter", func() interface{} { return app.Limiter.GetStats() })
	}
	monitoring.RegisterStats("cache", func() interface{} { return app.TaskService.CacheStats() })
	monitoring.RegisterStats("scheduler", func() interface{} { return app.Scheduler.GetStats() })
}

func (app *Application) startServer() error {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		log.Printf("📊 Metrics available at http://%s/metrics", addr)
		log.Printf("💚 Health check at http://%s/health", addr)

		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Printf("❌ Server failed to start: %v", err)
		app.cleanup()
		return err
	case <-quit:
	}

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	app.cleanup()
	log.Println("✅ Server stopped gracefully")
	return nil
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Scheduler != nil {
		app.Scheduler.Stop()
	}
	if app.Pool != nil {
		app.Pool.Stop()
	}

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("⚠️  Error closing cache: %v", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	if app.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Mongo.Close(ctx); err != nil {
			log.Printf("⚠️  Error closing MongoDB: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}

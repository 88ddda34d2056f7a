package main

import (
	"time"

	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/monitoring"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const maxUploadMemory = 8 << 20

func (app *Application) setupRoutes() {
	cfg := app.Config

	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(middleware.RecoveryWithLog())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RateLimiter(middleware.PerMinute(cfg.RateLimit.RequestsPerMin), cfg.RateLimit.BurstSize))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	r.Static("/uploads", cfg.Server.UploadDir)

	requireAuth := middleware.AuthRequired(app.Tokens)
	adminOnly := middleware.AdminOnly()

	authHandler := handlers.NewAuthHandler(app.RegisterService, app.AuthService, handlers.AuthOptions{
		CookieSecure: cfg.Auth.CookieSecure,
		TokenTTL:     cfg.Auth.TokenTTL,
		UploadDir:    cfg.Server.UploadDir,
		PublicURL:    cfg.Server.PublicURL,
	})
	taskHandler := handlers.NewTaskHandler(app.TaskService, app.TaskService)
	userHandler := handlers.NewUserHandler(app.UserService)
	reportHandler := handlers.NewReportHandler(app.ReportService)
	cacheHandler := handlers.NewCacheHandler(app.TaskService, app.Scheduler)

	api := r.Group("/api")

	// Public authentication routes
	authRoutes := api.Group("/auth")
	{
		signin := append(app.sharedLimit("signin", cfg.RateLimit.SigninPerMin, middleware.IPKeyFunc), authHandler.Signin)

		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/signin", signin...)
		authRoutes.POST("/signout", authHandler.Signout)
		authRoutes.POST("/upload-image", authHandler.UploadImage)
		authRoutes.GET("/user-profile", requireAuth, authHandler.Profile)
		authRoutes.PUT("/update-profile", requireAuth, authHandler.UpdateProfile)
	}

	taskRoutes := api.Group("/tasks", requireAuth)
	{
		// Keyed by user, so it must run after requireAuth.
		mutations := app.sharedLimit("task_mutations", cfg.RateLimit.MutationsPerMin, middleware.UserKeyFunc)
		write := func(h gin.HandlerFunc) []gin.HandlerFunc {
			return append(append([]gin.HandlerFunc{}, mutations...), h)
		}

		taskRoutes.POST("/create", write(taskHandler.CreateTask)...)
		taskRoutes.GET("", taskHandler.ListTasks)
		taskRoutes.GET("/dashboard", taskHandler.Dashboard)
		taskRoutes.GET("/user-dashboard", taskHandler.UserDashboard)
		taskRoutes.GET("/:id", taskHandler.GetTask)
		taskRoutes.PUT("/:id", write(taskHandler.UpdateTask)...)
		taskRoutes.DELETE("/:id", write(taskHandler.DeleteTask)...)
		taskRoutes.PUT("/:id/status", write(taskHandler.UpdateStatus)...)
		taskRoutes.PUT("/:id/checklist", write(taskHandler.UpdateChecklist)...)
	}

	userRoutes := api.Group("/users", requireAuth)
	{
		userRoutes.GET("", adminOnly, userHandler.ListMembers)
		userRoutes.GET("/:id", userHandler.GetUser)
	}

	reportRoutes := api.Group("/reports/export", requireAuth, adminOnly)
	{
		reportRoutes.GET("/tasks", reportHandler.ExportTasks)
		reportRoutes.GET("/users", reportHandler.ExportUsers)
	}

	// Cache management routes (admin only)
	cacheRoutes := api.Group("/cache", requireAuth, adminOnly)
	{
		cacheRoutes.GET("/stats", cacheHandler.GetCacheStats)
		cacheRoutes.POST("/warmup", cacheHandler.WarmCache)
		cacheRoutes.DELETE("", cacheHandler.ClearCache)
	}

	app.Router = r
}

// sharedLimit returns the Redis-backed per-minute limiter for name, or no
// handlers when Redis is unavailable or perMin is not positive.
func (app *Application) sharedLimit(name string, perMin int, key func(*gin.Context) string) []gin.HandlerFunc {
	if app.Limiter == nil || perMin <= 0 {
		return nil
	}
	return []gin.HandlerFunc{app.Limiter.CreateMiddleware(name, &middleware.RateLimit{
		Rate:    perMin,
		Window:  time.Minute,
		KeyFunc: key,
	})}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"reviewhub/database"
	"reviewhub/internal/cache"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/handler"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
	"reviewhub/internal/mail"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPassword)

	var mailer mail.Dispatcher
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.AdminEmail, logger)
	} else {
		logger.Warn("no SMTP host configured, confirmation codes go to the log")
		mailer = mail.NewLogDispatcher(logger)
	}

	policy := permissions.DefaultPolicy()
	policy.ReservedUsername = cfg.ReservedUsername

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepo(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepo(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, mailer, policy, cfg)
	userService := service.NewUserService(userRepo, policy)
	catalogService := service.NewCatalogService(categoryRepo, genreRepo, cacheClient, cfg.CacheTTL)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, policy)
	commentService := service.NewCommentService(commentRepo, reviewRepo, policy)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(catalogService)
	genreHandler := handler.NewGenreHandler(catalogService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	commentHandler := handler.NewCommentHandler(commentService, reviewService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireAuth := middleware.AuthMiddleware(authService)
	catalogWrite := middleware.RequirePermission(policy, permissions.VerbWrite, permissions.ResourceCatalog)
	directoryGuard := middleware.RequirePermission(policy, permissions.VerbWrite, permissions.ResourceUserDirectory)

	api := r.Group("/api/v1")

	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMin)
	authGroup := api.Group("/auth", authLimiter.Middleware())
	authHandler.RegisterRoutes(authGroup)

	categoryHandler.RegisterRoutes(api, requireAuth, catalogWrite)
	genreHandler.RegisterRoutes(api, requireAuth, catalogWrite)

	titles := api.Group("/titles")
	titleHandler.RegisterRoutes(titles, requireAuth, catalogWrite)
	reviewHandler.RegisterRoutes(titles, requireAuth)
	commentHandler.RegisterRoutes(titles, requireAuth)

	userHandler.RegisterRoutes(api, requireAuth, directoryGuard)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("starting server", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

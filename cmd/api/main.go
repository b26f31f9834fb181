package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/analytics/dashboard"
	"github.com/reviewhub/backend/internal/api/handlers"
	cache "github.com/reviewhub/backend/internal/cache/redis"
	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/middleware/ratelimit"
	"github.com/reviewhub/backend/internal/middleware/security"
	"github.com/reviewhub/backend/internal/middleware/validation"
	"github.com/reviewhub/backend/internal/reviews"
	"github.com/reviewhub/backend/internal/storage/sqlite"
	"github.com/reviewhub/backend/internal/stream"
	"github.com/reviewhub/backend/pkg/config"
	appLogger "github.com/reviewhub/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ReviewHub API Server")
	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The API keeps serving without redis; analytics payloads are just
	// recomputed on every request.
	var composerCache dashboard.Cache
	var invalidator reviews.CacheInvalidator
	redisClient, err := cache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without analytics cache", zap.Error(err))
	} else {
		composerCache = redisClient
		invalidator = redisClient
		defer redisClient.Close()
	}

	hub := stream.NewHub()
	reviewService := reviews.NewService(sqliteClient, hub, invalidator)
	composer := dashboard.NewComposer(
		sqliteClient,
		composerCache,
		cfg.Analytics.DashboardWindowDays,
		cfg.Analytics.TimelineMonths,
		cfg.Analytics.DashboardCacheTTL,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{}))

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RequestDuration.WithLabelValues(
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Observe(time.Since(start).Seconds())
		return err
	})

	productHandler := handlers.NewProductHandler(sqliteClient, reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	commentHandler := handlers.NewCommentHandler(reviewService)
	analyticsHandler := handlers.NewAnalyticsHandler(sqliteClient, composer)
	userHandler := handlers.NewUserHandler(sqliteClient)

	api := app.Group("/api/v1")

	api.Post("/products", productHandler.CreateProduct)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Post("/products/:id/views", productHandler.RecordView)
	api.Get("/products/:id/reviews", reviewHandler.ListProductReviews)
	api.Get("/products/:id/comments", commentHandler.ListProductComments)

	api.Post("/categories", productHandler.CreateCategory)
	api.Get("/categories", productHandler.ListCategories)

	api.Post("/reviews", reviewHandler.CreateReview)
	api.Get("/reviews/pending", reviewHandler.ListPendingReviews)
	api.Get("/reviews/:id", reviewHandler.GetReview)
	api.Put("/reviews/:id", reviewHandler.UpdateReview)
	api.Post("/reviews/:id/approve", reviewHandler.ApproveReview)
	api.Post("/reviews/:id/reject", reviewHandler.RejectReview)
	api.Post("/reviews/:id/helpful", reviewHandler.MarkHelpful)

	api.Post("/comments", commentHandler.CreateComment)
	api.Get("/comments/pending", commentHandler.ListPendingComments)
	api.Post("/comments/:id/approve", commentHandler.ApproveComment)
	api.Post("/comments/:id/reject", commentHandler.RejectComment)

	api.Post("/users", userHandler.CreateUser)
	api.Get("/users/:id", userHandler.GetUser)
	api.Get("/users/:id/stats", reviewHandler.UserStats)

	api.Get("/analytics/dashboard", analyticsHandler.GetDashboard)
	api.Get("/analytics/categories/:id/insights", analyticsHandler.GetCategoryInsights)
	api.Get("/analytics/trending", analyticsHandler.GetTrending)
	api.Post("/analytics/sentiment", analyticsHandler.ScoreSentiment)
	api.Post("/analytics/keywords", analyticsHandler.ExtractKeywords)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/moderation", websocket.New(hub.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

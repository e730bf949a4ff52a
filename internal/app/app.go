package app

import (
	"fmt"

	"github.com/dinnerpicker/server/internal/module/billing"
	"github.com/dinnerpicker/server/internal/module/restaurant"
	"github.com/dinnerpicker/server/internal/module/spin"
	"github.com/dinnerpicker/server/internal/shared/cache"
	"github.com/dinnerpicker/server/internal/shared/config"
	"github.com/dinnerpicker/server/internal/shared/database"
	"github.com/dinnerpicker/server/internal/shared/logger"
	"github.com/dinnerpicker/server/internal/utils/metrics"
	"github.com/dinnerpicker/server/internal/utils/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires together configuration, storage, external collaborators, and the
// HTTP surface.
type App struct {
	config *config.Config
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine
	logger *zap.Logger

	spinHandler       *spin.Handler
	restaurantHandler *restaurant.Handler
	billingHandler    *billing.Handler
	webhookHandler    *billing.WebhookHandler
}

// New creates the application.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(&spin.UserRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	m := metrics.New("dinnerpicker")

	// Quota gate
	spinRepo := spin.NewRepository(db)
	spinService := spin.NewService(spinRepo, cfg.Quota.StartingSpins, log, m)

	// Restaurant flow
	placesClient, err := restaurant.NewPlacesClient(&cfg.Places, log, m)
	if err != nil {
		return nil, err
	}
	enricher, err := restaurant.NewEnricher(&cfg.LLM, log, m)
	if err != nil {
		return nil, err
	}
	restaurantService := restaurant.NewService(spinService, placesClient, restaurant.NewPicker(), enricher, log, m)

	// Billing
	billingService := billing.NewService(&cfg.Stripe, spinRepo, log)

	app := &App{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		logger:            log,
		spinHandler:       spin.NewHandler(spinService, log),
		restaurantHandler: restaurant.NewHandler(restaurantService, log),
		billingHandler:    billing.NewHandler(billingService, log),
		webhookHandler:    billing.NewWebhookHandler(billingService, log),
	}
	app.router = app.setupRouter(m)

	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases application resources.
func (a *App) Stop() {
	if err := cache.Close(a.redis); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter(m *metrics.Metrics) *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS())
	r.Use(m.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Signature-authenticated, provider-driven; stays off the rate-limited
	// API group.
	a.webhookHandler.RegisterRoutes(r)

	limiter := middleware.NewRedisRateLimiter(a.redis)
	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter, middleware.RateLimitConfig{
		Limit:  a.config.RateLimit.Limit,
		Window: a.config.RateLimit.Window,
	}))

	a.spinHandler.RegisterRoutes(api)
	a.restaurantHandler.RegisterRoutes(api)
	a.billingHandler.RegisterRoutes(api)

	return r
}

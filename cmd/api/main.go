package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmentor/portfolio-api/config"
	"github.com/getmentor/portfolio-api/internal/cache"
	"github.com/getmentor/portfolio-api/internal/handlers"
	"github.com/getmentor/portfolio-api/internal/middleware"
	"github.com/getmentor/portfolio-api/internal/repository"
	"github.com/getmentor/portfolio-api/internal/services"
	"github.com/getmentor/portfolio-api/pkg/db"
	"github.com/getmentor/portfolio-api/pkg/httpclient"
	"github.com/getmentor/portfolio-api/pkg/jwt"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"github.com/getmentor/portfolio-api/pkg/profiling"
	"github.com/getmentor/portfolio-api/pkg/storage"
	"github.com/getmentor/portfolio-api/pkg/tracing"
	"github.com/getmentor/portfolio-api/pkg/trigger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	jsonBodyLimit  = 100 * 1024
	imageBodyLimit = 60 * 1024 * 1024 // up to 10 images of 10 MB, base64 encoded
)

type routeHandlers struct {
	health     *handlers.HealthHandler
	skills     *handlers.SkillsHandler
	portfolios *handlers.PortfolioHandler
	forms      *handlers.FormHandler
}

type rateLimiters struct {
	general *middleware.RateLimiter
	create  *middleware.RateLimiter
}

func (rl rateLimiters) stop() {
	rl.general.Stop()
	rl.create.Stop()
}

// registerRoutes registers the operational and v1 API routes
func registerRoutes(router *gin.Engine, cfg *config.Config, h routeHandlers, limiters rateLimiters, tokenManager *jwt.TokenManager) {
	api := router.Group("/api")
	api.GET("/healthcheck", limiters.general.Middleware(), h.health.Healthcheck)
	api.GET("/metrics", limiters.general.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.GET("/skills", limiters.general.Middleware(), h.skills.GetSkills)

	session := middleware.UserSessionMiddleware(tokenManager, cfg.Session.CookieDomain, cfg.Session.CookieSecure)

	portfolios := v1.Group("/portfolios", limiters.general.Middleware(), session)
	portfolios.GET("", h.portfolios.ListPortfolios)
	portfolios.POST("", limiters.create.Middleware(), middleware.BodySizeLimitMiddleware(imageBodyLimit), h.portfolios.CreatePortfolio)

	forms := v1.Group("/portfolio-forms", limiters.general.Middleware(), session)
	forms.POST("", h.forms.OpenForm)
	forms.GET("/:id", h.forms.GetForm)
	forms.PATCH("/:id/fields", middleware.BodySizeLimitMiddleware(jsonBodyLimit), h.forms.UpdateFields)
	forms.PUT("/:id/skills", middleware.BodySizeLimitMiddleware(jsonBodyLimit), h.forms.SetSkills)
	forms.PUT("/:id/images", middleware.BodySizeLimitMiddleware(imageBodyLimit), h.forms.SetImages)
	forms.POST("/:id/submit", limiters.create.Middleware(), h.forms.Submit)
	forms.POST("/:id/reset", h.forms.Reset)
	forms.GET("/:id/notifications", h.forms.Notifications)
	forms.DELETE("/:id", h.forms.Discard)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting portfolio API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
		Endpoint:          cfg.Observability.AlloyEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiling, err := profiling.Start(profiling.Options{
		Enabled:        cfg.Profiling.Enabled,
		Endpoint:       cfg.Profiling.Endpoint,
		AppName:        cfg.Profiling.AppName,
		SampleTypes:    cfg.Profiling.SampleTypes,
		UploadInterval: time.Duration(cfg.Profiling.UploadIntervalSeconds) * time.Second,
		ServiceName:    cfg.Observability.ServiceName,
		Namespace:      cfg.Observability.ServiceNamespace,
		Version:        cfg.Observability.ServiceVersion,
		InstanceID:     cfg.Observability.ServiceInstanceID,
		Environment:    cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to start profiling", zap.Error(err))
	}
	defer stopProfiling()

	poolCfg := db.PoolConfig{
		URL:           cfg.Database.URL,
		MaxConns:      cfg.Database.MaxConns,
		MinConns:      cfg.Database.MinConns,
		CACertPath:    cfg.Database.CACertPath,
		TLSServerName: cfg.Database.TLSServerName,
	}
	pool, err := db.NewPool(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer db.Close(pool)

	// Migrations run separately via cmd/migrate

	imageStorage := storage.NewImageStorage(storage.Config{
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		BucketName:      cfg.Storage.BucketName,
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
	})

	portfolioRepo := repository.NewPortfolioRepository(pool)
	skillRepo := repository.NewSkillRepository(pool)

	skillsCache := cache.NewSkillsCache(skillRepo)
	// The vocabulary must be loaded before the container reports healthy
	if err := skillsCache.Initialize(context.Background()); err != nil {
		logger.Fatal("Failed to initialize skills cache", zap.Error(err))
	}
	portfolioStore := cache.NewPortfolioStore(portfolioRepo, cfg.Cache.PortfolioTTLSeconds)

	httpClient := httpclient.NewTracedClient(httpclient.DefaultTimeout)
	tokenManager := jwt.NewTokenManager(cfg.Session.JWTSecret, cfg.Session.JWTIssuer)

	portfolioService := services.NewPortfolioService(portfolioRepo, imageStorage, skillsCache, portfolioStore, cfg, httpClient)
	formService := services.NewFormService(portfolioService, skillsCache, portfolioStore, cfg)
	defer formService.Close()

	h := routeHandlers{
		health:     handlers.NewHealthHandler(pool.Ping, skillsCache.IsReady),
		skills:     handlers.NewSkillsHandler(skillsCache),
		portfolios: handlers.NewPortfolioHandler(portfolioService),
		forms:      handlers.NewFormHandler(formService),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	}))

	limiters := rateLimiters{
		general: middleware.NewRateLimiter(100, 200), // 100 req/sec, burst of 200
		create:  middleware.NewRateLimiter(0.2, 5),   // 1 req/5s, burst of 5
	}
	defer limiters.stop()

	registerRoutes(router, cfg, h, limiters, tokenManager)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let pending portfolio.created triggers finish
	trigger.Wait()

	logger.Info("Server exited")
}

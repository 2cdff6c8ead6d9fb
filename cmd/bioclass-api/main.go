package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "time/tzdata"

	_ "github.com/noah-isme/bioclass-api/api/swagger"
	"github.com/noah-isme/bioclass-api/internal/handler"
	internalmiddleware "github.com/noah-isme/bioclass-api/internal/middleware"
	"github.com/noah-isme/bioclass-api/internal/repository"
	"github.com/noah-isme/bioclass-api/internal/service"
	"github.com/noah-isme/bioclass-api/pkg/cache"
	"github.com/noah-isme/bioclass-api/pkg/cep"
	"github.com/noah-isme/bioclass-api/pkg/config"
	"github.com/noah-isme/bioclass-api/pkg/database"
	"github.com/noah-isme/bioclass-api/pkg/export"
	"github.com/noah-isme/bioclass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bioclass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bioclass-api/pkg/middleware/requestid"
	"github.com/noah-isme/bioclass-api/pkg/payment"
)

const (
	shutdownTimeout = 10 * time.Second
	cacheNamespace  = "bioclass"
	cepCacheTTL     = 24 * time.Hour
)

// @title BioClass API
// @version 1.0.0
// @description Course sales, enrollments and finance reconciliation for BioClass
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid timezone", "timezone", cfg.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, cacheNamespace)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.FinanceTTL, logr, cacheRepo != nil)
	validate := service.NewValidator()

	profiles := repository.NewProfileRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	transactions := repository.NewTransactionRepository(db)
	expenses := repository.NewExpenseRepository(db)

	if err := service.NewAdminSeeder(profiles, cfg.Admin.SeedEmails, logr).Seed(ctx); err != nil {
		logr.Warn("admin seed failed", zap.Error(err))
	}

	authSvc := service.NewAuthService(profiles, cacheSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courses, cacheSvc, validate, logr, cfg.Cache.CatalogTTL)
	financeSvc := service.NewFinanceService(enrollments, transactions, expenses, cacheSvc, metrics, export.NewPDFExporter(loc), validate, logr, service.FinanceServiceConfig{
		Location: loc,
		CacheTTL: cfg.Cache.FinanceTTL,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, cacheSvc, metrics, export.NewCertificateRenderer(), validate, logr, loc)
	expenseSvc := service.NewExpenseService(expenses, cacheSvc, validate, logr)
	profileSvc := service.NewProfileService(profiles, cacheSvc, export.NewCSVExporter(true), validate, logr, loc)
	cepSvc := service.NewCEPService(cep.NewClient(cfg.CEP.BaseURL, cfg.CEP.Timeout, nil), cacheSvc, logr, cepCacheTTL)
	gateway, provider := newGateway(cfg.Payments, logr)
	checkoutSvc := service.NewCheckoutService(courses, gateway, provider, metrics, validate, logr)
	dashboardSvc := service.NewDashboardService(profiles, courses, enrollments, financeSvc, cacheSvc, metrics, logr, cfg.Cache.DashboardTTL)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Finance:     handler.NewFinanceHandler(financeSvc, loc),
		Expenses:    handler.NewExpenseHandler(expenseSvc),
		Profiles:    handler.NewProfileHandler(profileSvc),
		CEP:         handler.NewCEPHandler(cepSvc),
		Checkout:    handler.NewCheckoutHandler(checkoutSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newGateway returns the configured payment gateway, or nil when it has no
// credentials. Checkout then answers with an upstream error.
func newGateway(cfg config.PaymentsConfig, logr *zap.Logger) (payment.Gateway, string) {
	switch cfg.Provider {
	case config.PaymentProviderMidtrans:
		if cfg.MidtransServerKey == "" {
			logr.Warn("midtrans server key missing, checkout disabled")
			return nil, payment.ProviderMidtrans
		}
		return payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction), payment.ProviderMidtrans
	default:
		if cfg.MercadoPagoToken == "" {
			logr.Warn("mercado pago token missing, checkout disabled")
			return nil, payment.ProviderMercadoPago
		}
		backURLs := payment.BackURLs{Success: cfg.SuccessURL, Failure: cfg.FailureURL, Pending: cfg.PendingURL}
		return payment.NewMercadoPago(cfg.MercadoPagoBaseURL, cfg.MercadoPagoToken, backURLs, cfg.Timeout, nil), payment.ProviderMercadoPago
	}
}

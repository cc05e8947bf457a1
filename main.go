package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopfront/backend/internal/config"
	"github.com/shopfront/backend/internal/db"
	"github.com/shopfront/backend/internal/handler"
	"github.com/shopfront/backend/internal/logging"
	"github.com/shopfront/backend/internal/metrics"
	"github.com/shopfront/backend/internal/service"
	"github.com/shopfront/backend/internal/storage"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// @title Shopfront API
// @version 1.0
// @description Storefront catalog, admin authentication and WhatsApp checkout.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load .env: %v", err)
	}

	cfg := config.Load()
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   boolValue(cfg.Log.ToStdout, true),
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: boolValue(cfg.Log.FormatJSON, false),
	})

	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	pg := db.New(pool)
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	var (
		registry *prometheus.Registry
		manager  *metrics.Manager
	)
	if boolValue(cfg.Server.MetricsEnabled, true) {
		registry = metrics.SetupPrometheus(pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": "storefront"}))
		manager = metrics.NewManager("storefront", "main", registry)
	}

	authService, err := service.NewAuthService(pg, cfg.Auth)
	if err != nil {
		log.Fatalf("failed to init auth service: %v", err)
	}
	if cfg.Auth.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("failed to bootstrap admin: %v", err)
		}
	}

	maxUpload, err := strconv.ParseInt(strings.TrimSpace(cfg.Upload.MaxBytes), 10, 64)
	if err != nil || maxUpload <= 0 {
		maxUpload = storage.DefaultMaxBytes
	}
	store, err := storage.NewDiskStore(cfg.Upload.Dir, maxUpload)
	if err != nil {
		log.Fatalf("failed to init upload dir: %v", err)
	}

	catalogService := service.NewCatalogService(pg, store)
	if manager != nil {
		catalogService.SetUploadCounter(manager.CounterUploads)
	}

	checkoutService, err := service.NewCheckoutService(catalogService, cfg.Checkout)
	if err != nil {
		log.Fatalf("failed to init checkout: %v", err)
	}

	deps := handler.RouterDeps{
		Auth:           authService,
		Catalog:        catalogService,
		Checkout:       checkoutService,
		Metrics:        manager,
		Registry:       registry,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		UploadDir:      store.Root(),
		AdminUIDir:     cfg.Server.AdminUIDir,
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("failed to ping redis: %v", err)
		}
		deps.RateLimiter = redis_rate.NewLimiter(rdb)
		deps.LoginRateLimitPerMin, err = strconv.Atoi(strings.TrimSpace(cfg.Redis.LoginRateLimitPerMin))
		if err != nil {
			log.Warnf("invalid LOGIN_RATE_LIMIT_PER_MIN %q, login rate limit disabled", cfg.Redis.LoginRateLimitPerMin)
		}
	} else {
		log.Info("REDIS_ADDR not set, login rate limit disabled")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := handler.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}

func boolValue(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

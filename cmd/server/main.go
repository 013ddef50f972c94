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

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"loan-portal/internal/auth"
	"loan-portal/internal/config"
	apphttp "loan-portal/internal/http"
	"loan-portal/internal/observability"
	"loan-portal/internal/repository/sqlite"
	"loan-portal/internal/service"
	"loan-portal/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	loanRepo := sqlite.NewLoanRepository(db)
	documentRepo := sqlite.NewDocumentRepository(db)

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatalf("password hasher: %v", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}

	denylist, cache, closeDenylist, err := buildDenylist(ctx, cfg)
	if err != nil {
		logger.Fatalf("setup revocation: %v", err)
	}
	defer closeDenylist()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	storageSvc = observability.InstrumentStorage(storageSvc, metrics)

	userService, err := service.NewUserService(userRepo, hasher)
	if err != nil {
		logger.Fatalf("user service: %v", err)
	}
	sessionService := service.NewSessionService(userService, tokens, denylist)
	loanService := service.NewLoanService(loanRepo, userRepo)
	documentService := service.NewDocumentService(documentRepo, storageSvc, service.DocumentConfig{
		Bucket:     cfg.Storage.Bucket,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		PresignTTL: cfg.Storage.PresignTTL,
		Logger:     logger,
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Dependencies{
		Users:          userService,
		Sessions:       sessionService,
		Loans:          loanService,
		Documents:      documentService,
		Storage:        storageSvc,
		Tokens:         tokens,
		Denylist:       denylist,
		Health:         observability.NewHealthChecker(db, cache, logger),
		Metrics:        metrics,
		Logger:         logger,
		Bucket:         cfg.Storage.Bucket,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		PresignTTL:     cfg.Storage.PresignTTL,
		RateLimit: apphttp.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Burst:    cfg.RateLimit.Burst,
		},
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

// buildDenylist returns the revocation store, the pinger used by health checks (nil for memory), and a close func.
func buildDenylist(ctx context.Context, cfg config.Config) (auth.Denylist, observability.Pinger, func(), error) {
	switch cfg.Revocation.Driver {
	case "redis":
		denylist, err := auth.NewRedisDenylist(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		return denylist, denylist, func() { denylist.Close() }, nil
	default:
		return auth.NewMemoryDenylist(cfg.Revocation.Capacity, cfg.Auth.TokenTTL), nil, func() {}, nil
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Warn("storage bucket not configured, document uploads are disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

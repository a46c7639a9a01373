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

	"account-service/internal/config"
	"account-service/internal/db"
	"account-service/internal/email"
	apihttp "account-service/internal/http"
	"account-service/internal/notify"
	"account-service/internal/repository"
	"account-service/internal/service"
	"account-service/internal/storage"
	"account-service/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	err = run(cfg, logger)
	if err != nil {
		logger.Error("service stopped", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run arma las dependencias y sirve hasta SIGINT/SIGTERM o un error del listener.
// Los recursos se liberan siempre antes de volver.
func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTelEndpoint, cfg.OTelServiceName)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()
	shutdownMetrics, err := telemetry.SetupMetrics(ctx, cfg.OTelEndpoint, cfg.OTelServiceName)
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}()
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics instruments: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Warn("db ping failed", zap.Error(err))
	}
	if cfg.DBMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
		logger.Info("database schema up to date")
	}

	objects, err := storage.NewS3ObjectStore(ctx, storage.S3Options{
		Bucket:        cfg.BucketName,
		Region:        cfg.AWSRegion,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("object store init: %w", err)
	}

	var notifiers notify.MultiNotifier
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", zap.Error(err))
			}
		}()
		notifiers = append(notifiers, notify.NewRedisNotifier(redisClient, cfg.NotifyChannel))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			notifiers = append(notifiers, notify.NewEmailNotifier(sender))
		}
	}
	var notifier notify.Notifier = notifiers
	if len(notifiers) == 0 {
		logger.Warn("no verification notifier configured")
		notifier = notify.NewDisabledNotifier()
	}

	userRepo := repository.NewPgUserRepository(pool)
	imageRepo := repository.NewPgImageRepository(pool)

	verifier := service.NewVerificationService(logger, userRepo, cfg.VerifyTokenTTL, cfg.VerifyTokenGrace)
	userSvc := service.NewUserService(logger, userRepo, verifier, notifier, service.UserServiceOptions{
		VerifyBaseURL: cfg.VerifyBaseURL,
		BcryptCost:    cfg.BcryptCost,
		Metrics:       metrics,
	})
	imageSvc := service.NewProfileImageService(logger, imageRepo, objects, metrics)

	router := apihttp.NewRouter(logger, metrics, apihttp.Handlers{
		Users:  apihttp.NewUserHandler(logger, userSvc, verifier),
		Images: apihttp.NewImageHandler(logger, imageSvc, cfg.MaxUploadBytes),
		Auth:   apihttp.BasicAuthMiddleware(logger, userSvc),
		DB:     pool,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var serveFailure error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveFailure = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if serveFailure != nil {
		return fmt.Errorf("http server: %w", serveFailure)
	}
	return nil
}

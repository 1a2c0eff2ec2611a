package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/config"
	"github.com/plateprep/plateprep/internal/infrastructure/database"
	httpServer "github.com/plateprep/plateprep/internal/infrastructure/http"
	"github.com/plateprep/plateprep/internal/infrastructure/mail"
	stripeProvider "github.com/plateprep/plateprep/internal/infrastructure/provider/stripe"
	"github.com/plateprep/plateprep/internal/logger"
	"github.com/plateprep/plateprep/internal/realtime"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}

	bus := realtime.NewRedisBus(redisClient, zapLogger)
	defer bus.Close()

	otpStore := repository.NewRedisOTPStore(redisClient)
	mailer := mail.NewSMTPMailer(cfg.Email)
	billing := stripeProvider.NewClient(zapLogger, cfg.Service.StripeTimeout)

	httpSrv := httpServer.NewServer(cfg, zapLogger, db, repos, bus, otpStore, mailer, billing)

	go func() {
		// Shutdown surfaces as ErrServerClosed here; only real startup
		// failures are fatal.
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}

package main

import (
	"context"
	"log"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/config"
	"github.com/plateprep/plateprep/internal/infrastructure/database"
	stripeProvider "github.com/plateprep/plateprep/internal/infrastructure/provider/stripe"
	"github.com/plateprep/plateprep/internal/logger"
	"github.com/plateprep/plateprep/internal/usecase"
)

// Pushes packages that are missing Stripe product or price ids to Stripe.
// Run once after seeding packages directly in the database.
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
	defer database.Close(db, zapLogger)

	stripe.Key = cfg.Service.StripeSecretKey

	repos := database.NewRepositories(db, zapLogger)
	billing := stripeProvider.NewClient(zapLogger, cfg.Service.StripeTimeout)
	packages := usecase.NewPackageService(repos.Packages, billing, zapLogger)

	synced, err := packages.SyncUnsynced(context.Background())
	if err != nil {
		zapLogger.Fatal("Package sync failed", zap.Error(err))
	}

	zapLogger.Info("Package sync completed", zap.Int("synced", synced))
}

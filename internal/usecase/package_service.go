package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/domain/provider"
)

// PackageInput carries client-supplied package fields. Provider ids are never
// part of it: they are written once by the sync step and never overwritten.
type PackageInput struct {
	Name            string
	Description     string
	Amount          int64
	Currency        string
	BillingInterval string
	IntervalCount   int
	Recurring       bool
}

// PackageService manages subscription packages and keeps them synced with the
// billing provider's products and prices.
type PackageService struct {
	packages repository.PackageRepository
	provider provider.BillingProvider
	logger   *zap.Logger
}

// NewPackageService creates a package service.
func NewPackageService(packages repository.PackageRepository, billing provider.BillingProvider, logger *zap.Logger) *PackageService {
	return &PackageService{
		packages: packages,
		provider: billing,
		logger:   logger,
	}
}

// Create persists a package and creates its Stripe product and price.
func (s *PackageService) Create(ctx context.Context, in PackageInput) (*model.Package, error) {
	pkg := &model.Package{
		Name:            in.Name,
		Description:     in.Description,
		Amount:          in.Amount,
		Currency:        in.Currency,
		BillingInterval: in.BillingInterval,
		IntervalCount:   in.IntervalCount,
		Recurring:       in.Recurring,
	}
	if pkg.Currency == "" {
		pkg.Currency = "usd"
	}
	if pkg.IntervalCount == 0 {
		pkg.IntervalCount = 1
	}

	productID, priceID, err := s.syncToProvider(ctx, pkg)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sync package to billing provider")
	}
	pkg.StripeProductID = productID
	pkg.StripePriceID = priceID

	if err := s.packages.Create(ctx, pkg); err != nil {
		return nil, err
	}

	s.logger.Info("Package created",
		zap.Int64("package_id", pkg.ID),
		zap.String("stripe_product_id", productID),
		zap.String("stripe_price_id", priceID))

	return pkg, nil
}

// Update applies client changes. Name/description propagate to the Stripe
// product; a change to any price-related field mints a new Stripe price and
// stores its id (Stripe prices are immutable).
func (s *PackageService) Update(ctx context.Context, id int64, in PackageInput) (*model.Package, error) {
	pkg, err := s.packages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "package not found", nil)
	}

	if pkg.StripeProductID != "" && (in.Name != pkg.Name || in.Description != pkg.Description) {
		err := s.provider.UpdateProduct(ctx, pkg.StripeProductID, provider.ProductParams{
			Name:        in.Name,
			Description: in.Description,
		})
		if err != nil {
			s.logger.Warn("Failed to propagate product update",
				zap.Int64("package_id", id),
				zap.Error(err))
		}
	}

	priceChanged := in.Amount != pkg.Amount ||
		in.BillingInterval != pkg.BillingInterval ||
		in.IntervalCount != pkg.IntervalCount ||
		in.Recurring != pkg.Recurring

	pkg.Name = in.Name
	pkg.Description = in.Description
	pkg.Amount = in.Amount
	pkg.BillingInterval = in.BillingInterval
	pkg.IntervalCount = in.IntervalCount
	pkg.Recurring = in.Recurring
	if in.Currency != "" {
		pkg.Currency = in.Currency
	}

	if priceChanged && pkg.StripeProductID != "" {
		priceID, err := s.provider.CreatePrice(ctx, provider.PriceParams{
			ProductID:     pkg.StripeProductID,
			UnitAmount:    pkg.Amount,
			Currency:      pkg.Currency,
			Recurring:     pkg.Recurring,
			Interval:      pkg.BillingInterval,
			IntervalCount: pkg.IntervalCount,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to create new price")
		}
		pkg.StripePriceID = priceID
	}

	if err := s.packages.Update(ctx, pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

// Delete removes the package locally and deactivates the Stripe product.
// A provider failure is logged; the local delete proceeds.
func (s *PackageService) Delete(ctx context.Context, id int64) error {
	pkg, err := s.packages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if pkg == nil {
		return apperrors.NewAppError(apperrors.ErrNotFound, "package not found", nil)
	}

	if pkg.StripeProductID != "" {
		if err := s.provider.DeactivateProduct(ctx, pkg.StripeProductID); err != nil {
			s.logger.Warn("Failed to deactivate product",
				zap.String("stripe_product_id", pkg.StripeProductID),
				zap.Error(err))
		}
	}

	return s.packages.Delete(ctx, id)
}

// List returns all packages.
func (s *PackageService) List(ctx context.Context) ([]*model.Package, error) {
	return s.packages.List(ctx)
}

// Get returns one package.
func (s *PackageService) Get(ctx context.Context, id int64) (*model.Package, error) {
	pkg, err := s.packages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "package not found", nil)
	}
	return pkg, nil
}

// SyncUnsynced pushes every package missing provider ids to Stripe. Used by
// the sync-packages command.
func (s *PackageService) SyncUnsynced(ctx context.Context) (int, error) {
	pkgs, err := s.packages.ListUnsynced(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, pkg := range pkgs {
		productID, priceID, err := s.syncToProvider(ctx, pkg)
		if err != nil {
			s.logger.Error("Failed to sync package",
				zap.Int64("package_id", pkg.ID),
				zap.Error(err))
			continue
		}
		pkg.StripeProductID = productID
		pkg.StripePriceID = priceID
		if err := s.packages.Update(ctx, pkg); err != nil {
			s.logger.Error("Failed to persist synced package",
				zap.Int64("package_id", pkg.ID),
				zap.Error(err))
			continue
		}
		synced++
	}

	return synced, nil
}

func (s *PackageService) syncToProvider(ctx context.Context, pkg *model.Package) (productID, priceID string, err error) {
	productID = pkg.StripeProductID
	if productID == "" {
		productID, err = s.provider.CreateProduct(ctx, provider.ProductParams{
			Name:        pkg.Name,
			Description: pkg.Description,
		})
		if err != nil {
			return "", "", err
		}
	}

	priceID, err = s.provider.CreatePrice(ctx, provider.PriceParams{
		ProductID:     productID,
		UnitAmount:    pkg.Amount,
		Currency:      pkg.Currency,
		Recurring:     pkg.Recurring,
		Interval:      pkg.BillingInterval,
		IntervalCount: pkg.IntervalCount,
	})
	if err != nil {
		return "", "", err
	}

	return productID, priceID, nil
}

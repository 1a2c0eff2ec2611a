package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// PackageRepository provides package (plan) persistence.
type PackageRepository interface {
	Create(ctx context.Context, pkg *model.Package) error
	Update(ctx context.Context, pkg *model.Package) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Package, error)
	GetByStripePriceID(ctx context.Context, priceID string) (*model.Package, error)
	List(ctx context.Context) ([]*model.Package, error)
	ListUnsynced(ctx context.Context) ([]*model.Package, error)
}

type packageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *gorm.DB, logger *zap.Logger) PackageRepository {
	return &packageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *packageRepository) Create(ctx context.Context, pkg *model.Package) error {
	if err := r.db.WithContext(ctx).Create(pkg).Error; err != nil {
		r.logger.Error("Failed to create package",
			zap.String("name", pkg.Name),
			zap.Error(err))
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

func (r *packageRepository) Update(ctx context.Context, pkg *model.Package) error {
	if err := r.db.WithContext(ctx).Save(pkg).Error; err != nil {
		r.logger.Error("Failed to update package",
			zap.Int64("package_id", pkg.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update package: %w", err)
	}
	return nil
}

func (r *packageRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Package{}, id)
	if result.Error != nil {
		r.logger.Error("Failed to delete package",
			zap.Int64("package_id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to delete package: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("package not found: %d", id)
	}
	return nil
}

func (r *packageRepository) GetByID(ctx context.Context, id int64) (*model.Package, error) {
	var pkg model.Package

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get package",
			zap.Int64("package_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &pkg, nil
}

func (r *packageRepository) GetByStripePriceID(ctx context.Context, priceID string) (*model.Package, error) {
	var pkg model.Package

	err := r.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get package by price id",
			zap.String("price_id", priceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &pkg, nil
}

func (r *packageRepository) List(ctx context.Context) ([]*model.Package, error) {
	var pkgs []*model.Package

	if err := r.db.WithContext(ctx).Order("id ASC").Find(&pkgs).Error; err != nil {
		r.logger.Error("Failed to list packages", zap.Error(err))
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return pkgs, nil
}

// ListUnsynced returns packages not yet pushed to the billing provider
func (r *packageRepository) ListUnsynced(ctx context.Context) ([]*model.Package, error) {
	var pkgs []*model.Package

	err := r.db.WithContext(ctx).
		Where("stripe_product_id = '' OR stripe_price_id = ''").
		Order("id ASC").
		Find(&pkgs).Error
	if err != nil {
		r.logger.Error("Failed to list unsynced packages", zap.Error(err))
		return nil, fmt.Errorf("failed to list unsynced packages: %w", err)
	}

	return pkgs, nil
}

package repositories

import (
	"context"

	"github.com/sayfoods/sayfoods-api/models"
	"gorm.io/gorm"
)

// DonationRepository stores food-share listings and the claims made on them
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a donation store backed by db
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) CreateFoodShare(ctx context.Context, share *models.FoodShare) error {
	return translate(r.db.WithContext(ctx).Create(share).Error, "failed to create food share")
}

func (r *DonationRepository) FindFoodShareByID(ctx context.Context, id string) (*models.FoodShare, error) {
	var share models.FoodShare
	if err := r.db.WithContext(ctx).First(&share, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find food share")
	}
	return &share, nil
}

func (r *DonationRepository) FindFoodShareByProductName(ctx context.Context, productName string) (*models.FoodShare, error) {
	var share models.FoodShare
	if err := r.db.WithContext(ctx).Where("product_name = ?", productName).First(&share).Error; err != nil {
		return nil, translate(err, "failed to find food share")
	}
	return &share, nil
}

func (r *DonationRepository) SaveFoodShare(ctx context.Context, share *models.FoodShare) error {
	return translate(r.db.WithContext(ctx).Save(share).Error, "failed to update food share")
}

func (r *DonationRepository) DeleteFoodShare(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.FoodShare{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete food share")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DonationRepository) ListFoodShares(ctx context.Context) ([]models.FoodShare, error) {
	var shares []models.FoodShare
	err := r.db.WithContext(ctx).Order("product_name ASC").Find(&shares).Error
	return shares, translate(err, "failed to list food shares")
}

func (r *DonationRepository) CreateOrderShare(ctx context.Context, claim *models.OrderShare) error {
	return translate(r.db.WithContext(ctx).Create(claim).Error, "failed to create order share")
}

func (r *DonationRepository) FindOrderShareByID(ctx context.Context, id string) (*models.OrderShare, error) {
	var claim models.OrderShare
	if err := r.db.WithContext(ctx).First(&claim, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find order share")
	}
	return &claim, nil
}

// ListOrderShares returns every claim, newest first
func (r *DonationRepository) ListOrderShares(ctx context.Context) ([]models.OrderShare, error) {
	var claims []models.OrderShare
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&claims).Error
	return claims, translate(err, "failed to list order shares")
}

func (r *DonationRepository) UpdateOrderShareStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&models.OrderShare{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "failed to update order share")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

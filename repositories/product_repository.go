package repositories

import (
	"context"
	"strings"

	"github.com/sayfoods/sayfoods-api/models"
	"gorm.io/gorm"
)

// ProductRepository stores catalog products
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a catalog store backed by db
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "failed to create product")
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find product")
	}
	return &product, nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, translate(err, "failed to find product")
	}
	return &product, nil
}

// FindByNormalizedName finds the product whose name normalizes to the same key as name
func (r *ProductRepository) FindByNormalizedName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("normalized_name = ?", models.NormalizeProductName(name)).
		First(&product).Error
	if err != nil {
		return nil, translate(err, "failed to find product")
	}
	return &product, nil
}

// Save writes every column of product
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error, "failed to update product")
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete product")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of products, newest first, and the total count
func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.Product{}), offset, limit)
}

// ListByCategory returns a page of products in category, newest first, and the category count
func (r *ProductRepository) ListByCategory(ctx context.Context, category models.Category, offset, limit int) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("category = ?", category)
	return r.page(ctx, q, offset, limit)
}

// Search matches term case-insensitively anywhere in the product name
func (r *ProductRepository) Search(ctx context.Context, term string, offset, limit int) ([]models.Product, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	return r.page(ctx, q, offset, limit)
}

func (r *ProductRepository) CountByCategory(ctx context.Context, category models.Category) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category = ?", category).Count(&count).Error
	return count, translate(err, "failed to count products")
}

// Names returns every product name
func (r *ProductRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.Product{}).Order("name ASC").Pluck("name", &names).Error
	return names, translate(err, "failed to list product names")
}

func (r *ProductRepository) page(ctx context.Context, q *gorm.DB, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "failed to count products")
	}

	var products []models.Product
	err := q.Session(&gorm.Session{}).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, translate(err, "failed to list products")
	}
	return products, total, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/utils"
)

// Page sizes for catalog listings
const (
	ProductsPageSize          = 20
	CategoryPageSize          = 4
	SearchPageSize            = 10
	minProductSearchLength    = 2
	randomCategoryMinProducts = 3
	randomCategoryLimit       = 6
)

// ProductStore persists catalog products
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	FindByNormalizedName(ctx context.Context, name string) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]models.Product, int64, error)
	ListByCategory(ctx context.Context, category models.Category, offset, limit int) ([]models.Product, int64, error)
	Search(ctx context.Context, term string, offset, limit int) ([]models.Product, int64, error)
	CountByCategory(ctx context.Context, category models.Category) (int64, error)
	Names(ctx context.Context) ([]string, error)
}

// ProductInput is the create and edit payload. Image is a base64 data URL;
// on edit any other value keeps the stored image.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Stock       *int     `json:"stock"`
	Discount    *float64 `json:"discount"`
}

// CategoryProducts is a category with a handful of its newest products
type CategoryProducts struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

// CatalogService manages the product catalog and product images
type CatalogService struct {
	products ProductStore
	images   ImageService
	shuffle  func([]models.Category)
}

// NewCatalogService creates the catalog service
func NewCatalogService(products ProductStore, images ImageService) *CatalogService {
	return &CatalogService{
		products: products,
		images:   images,
		shuffle: func(c []models.Category) {
			rand.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
		},
	}
}

// List returns the newest products
func (s *CatalogService) List(ctx context.Context, page int) (utils.Page[models.Product], error) {
	products, total, err := s.products.List(ctx, utils.Offset(page, ProductsPageSize), ProductsPageSize)
	if err != nil {
		return utils.Page[models.Product]{}, err
	}
	s.withImageURLs(ctx, products)
	return utils.NewPage(products, page, ProductsPageSize, total), nil
}

// GetByName returns the product with exactly this name
func (s *CatalogService) GetByName(ctx context.Context, name string) (*models.Product, error) {
	product, err := s.products.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Product not found. Most likely have been deleted")
		}
		return nil, err
	}
	s.withImageURL(ctx, product)
	return product, nil
}

// Create adds a product, uploading its image first
func (s *CatalogService) Create(ctx context.Context, creatorID string, input ProductInput) (*models.Product, error) {
	category, err := validateProductInput(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Image) == "" {
		return nil, NewValidationError("image is required")
	}

	if _, err := s.products.FindByNormalizedName(ctx, input.Name); err == nil {
		return nil, productExists()
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	imageKey, err := s.uploadImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    category,
		ImageKey:    imageKey,
		Stock:       *input.Stock,
		Discount:    input.Discount,
		CreatorID:   creatorID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.deleteImage(ctx, imageKey)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, productExists()
		}
		return nil, err
	}

	s.withImageURL(ctx, product)
	return product, nil
}

// Edit replaces the product's fields. A new data URL replaces the stored image.
func (s *CatalogService) Edit(ctx context.Context, id string, input ProductInput) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id is required")
	}
	category, err := validateProductInput(input)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Product not found or may have been deleted")
		}
		return nil, err
	}

	if existing, err := s.products.FindByNormalizedName(ctx, input.Name); err == nil && existing.ID != product.ID {
		return nil, NewConflictError("PRODUCT_EXISTS", "Product name already exists. Please choose a different name.")
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	oldImageKey := product.ImageKey
	if utils.IsDataURL(input.Image) {
		if product.ImageKey, err = s.uploadImage(ctx, input.Image); err != nil {
			return nil, err
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.Category = category
	product.Stock = *input.Stock
	product.Discount = input.Discount

	if err := s.products.Save(ctx, product); err != nil {
		if product.ImageKey != oldImageKey {
			s.deleteImage(ctx, product.ImageKey)
		}
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("PRODUCT_EXISTS", "Product name already exists. Please choose a different name.")
		}
		return nil, err
	}
	if product.ImageKey != oldImageKey {
		s.deleteImage(ctx, oldImageKey)
	}

	s.withImageURL(ctx, product)
	return product, nil
}

// Delete removes a product and, best effort, its image
func (s *CatalogService) Delete(ctx context.Context, id string) (string, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", NewNotFoundError("Product not found or may have been deleted")
		}
		return "", err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", NewNotFoundError("Product not found or may have been deleted")
		}
		return "", err
	}
	s.deleteImage(ctx, product.ImageKey)
	return product.ID, nil
}

// ListByCategory returns the newest products in a category
func (s *CatalogService) ListByCategory(ctx context.Context, rawCategory string, page int) (utils.Page[models.Product], error) {
	category, ok := models.ParseCategory(rawCategory)
	if !ok {
		return utils.Page[models.Product]{}, invalidCategory()
	}

	products, total, err := s.products.ListByCategory(ctx, category, utils.Offset(page, CategoryPageSize), CategoryPageSize)
	if err != nil {
		return utils.Page[models.Product]{}, err
	}
	s.withImageURLs(ctx, products)
	return utils.NewPage(products, page, CategoryPageSize, total), nil
}

// RandomCategory picks a random category that has enough products to showcase
func (s *CatalogService) RandomCategory(ctx context.Context) (*CategoryProducts, error) {
	categories := append([]models.Category(nil), models.Categories...)
	s.shuffle(categories)

	for _, category := range categories {
		count, err := s.products.CountByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		if count < randomCategoryMinProducts {
			continue
		}

		products, _, err := s.products.ListByCategory(ctx, category, 0, randomCategoryLimit)
		if err != nil {
			return nil, err
		}
		s.withImageURLs(ctx, products)
		return &CategoryProducts{Category: category, Products: products}, nil
	}
	return nil, NewNotFoundError("No category with enough products found")
}

// Search matches products by name
func (s *CatalogService) Search(ctx context.Context, term string, page int) (utils.Page[models.Product], error) {
	term = strings.TrimSpace(term)
	if len(term) < minProductSearchLength {
		return utils.Page[models.Product]{}, NewValidationError("Search term must be at least 2 characters long")
	}

	products, total, err := s.products.Search(ctx, term, utils.Offset(page, SearchPageSize), SearchPageSize)
	if err != nil {
		return utils.Page[models.Product]{}, err
	}
	s.withImageURLs(ctx, products)
	return utils.NewPage(products, page, SearchPageSize, total), nil
}

func (s *CatalogService) uploadImage(ctx context.Context, dataURL string) (string, error) {
	content, _, err := utils.DecodeImageDataURL(dataURL)
	if err != nil {
		return "", uploadError(err)
	}
	key, err := s.images.UploadImage(ctx, content)
	if err != nil {
		if e := uploadError(err); e != err {
			return "", e
		}
		return "", fmt.Errorf("failed to upload product image: %w", err)
	}
	return key, nil
}

func (s *CatalogService) deleteImage(ctx context.Context, key string) {
	if err := s.images.DeleteImage(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete product image")
	}
}

func (s *CatalogService) withImageURL(ctx context.Context, product *models.Product) {
	url, err := s.images.GetImageURL(ctx, product.ImageKey)
	if err != nil {
		log.Warn().Err(err).Str("product_id", product.ID).Msg("Failed to generate image URL")
		return
	}
	product.ImageURL = url
}

func (s *CatalogService) withImageURLs(ctx context.Context, products []models.Product) {
	for i := range products {
		s.withImageURL(ctx, &products[i])
	}
}

// validateProductInput checks required fields in the order clients list them
func validateProductInput(input ProductInput) (models.Category, error) {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return "", NewValidationError("name is required")
	case strings.TrimSpace(input.Description) == "":
		return "", NewValidationError("description is required")
	case input.Price <= 0:
		return "", NewValidationError("price is required")
	case strings.TrimSpace(input.Category) == "":
		return "", NewValidationError("category is required")
	case input.Stock == nil:
		return "", NewValidationError("stock is required")
	case *input.Stock < 0:
		return "", NewValidationError("stock cannot be negative")
	case input.Discount != nil && *input.Discount < 0:
		return "", NewValidationError("discount cannot be negative")
	}

	category, ok := models.ParseCategory(input.Category)
	if !ok {
		return "", invalidCategory()
	}
	return category, nil
}

// uploadError turns image validation failures into validation errors and passes everything else through
func uploadError(err error) error {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		return &Error{Kind: KindValidation, Code: uploadErr.Code, Message: uploadErr.Message}
	}
	return err
}

func invalidCategory() *Error {
	return NewValidationError("Invalid category. Valid options are: " + models.CategoryNames())
}

func productExists() *Error {
	return NewConflictError("PRODUCT_EXISTS", "A product with this name (or very similar) already exists")
}

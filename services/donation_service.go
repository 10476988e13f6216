package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
)

// DonationStore persists food-share listings and claims
type DonationStore interface {
	CreateFoodShare(ctx context.Context, share *models.FoodShare) error
	FindFoodShareByID(ctx context.Context, id string) (*models.FoodShare, error)
	FindFoodShareByProductName(ctx context.Context, productName string) (*models.FoodShare, error)
	SaveFoodShare(ctx context.Context, share *models.FoodShare) error
	DeleteFoodShare(ctx context.Context, id string) error
	ListFoodShares(ctx context.Context) ([]models.FoodShare, error)
	CreateOrderShare(ctx context.Context, claim *models.OrderShare) error
	ListOrderShares(ctx context.Context) ([]models.OrderShare, error)
	UpdateOrderShareStatus(ctx context.Context, id, status string) error
	FindOrderShareByID(ctx context.Context, id string) (*models.OrderShare, error)
}

// ProductNameLookup resolves catalog products by name
type ProductNameLookup interface {
	FindByName(ctx context.Context, name string) (*models.Product, error)
	Names(ctx context.Context) ([]string, error)
}

// FoodShareInput is the create and update payload for listings
type FoodShareInput struct {
	ProductName string   `json:"productName"`
	Portions    []string `json:"portion"`
}

// OrderShareInput is a claim on a listing
type OrderShareInput struct {
	ProductName string `json:"productName"`
	Portion     string `json:"portion"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

// NameOption is a select-box entry
type NameOption struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DonationService manages food-share listings and the claims made on them
type DonationService struct {
	donations DonationStore
	products  ProductNameLookup
	accounts  AccountLookup
}

// NewDonationService creates the donation service
func NewDonationService(donations DonationStore, products ProductNameLookup, accounts AccountLookup) *DonationService {
	return &DonationService{donations: donations, products: products, accounts: accounts}
}

// CreateFoodShare lists an existing product for donation
func (s *DonationService) CreateFoodShare(ctx context.Context, userID string, input FoodShareInput) (*models.FoodShare, error) {
	productName, portions, err := validateFoodShareInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, productName, "You can't create this food share as the food item does not exist"); err != nil {
		return nil, err
	}

	share := &models.FoodShare{ProductName: productName, Portions: portions, UserID: userID}
	if err := s.donations.CreateFoodShare(ctx, share); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("FOOD_SHARE_EXISTS", "Food share item already exist")
		}
		return nil, err
	}
	return share, nil
}

// UpdateFoodShare renames a listing or changes its portions
func (s *DonationService) UpdateFoodShare(ctx context.Context, id string, input FoodShareInput) (*models.FoodShare, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("Missing parameters")
	}
	productName, portions, err := validateFoodShareInput(input)
	if err != nil {
		return nil, err
	}

	share, err := s.donations.FindFoodShareByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Food share item not found or may have been deleted")
		}
		return nil, err
	}

	if productName != share.ProductName {
		msg := fmt.Sprintf("You can't update this food share item name to %s as the food item does not exist", productName)
		if err := s.requireProduct(ctx, productName, msg); err != nil {
			return nil, err
		}
		if _, err := s.donations.FindFoodShareByProductName(ctx, productName); err == nil {
			return nil, NewConflictError("FOOD_SHARE_EXISTS", "Food share name already exists. Please choose a different name.")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	share.ProductName = productName
	share.Portions = portions
	if err := s.donations.SaveFoodShare(ctx, share); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("FOOD_SHARE_EXISTS", "Food share name already exists. Please choose a different name.")
		}
		return nil, err
	}
	return share, nil
}

// DeleteFoodShare removes a listing
func (s *DonationService) DeleteFoodShare(ctx context.Context, id string) error {
	if err := s.donations.DeleteFoodShare(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NewNotFoundError("Food share not found or may have been deleted")
		}
		return err
	}
	return nil
}

func (s *DonationService) ListFoodShares(ctx context.Context) ([]models.FoodShare, error) {
	shares, err := s.donations.ListFoodShares(ctx)
	if shares == nil {
		shares = []models.FoodShare{}
	}
	return shares, err
}

// GetFoodShare returns the listing for a product
func (s *DonationService) GetFoodShare(ctx context.Context, productName string) (*models.FoodShare, error) {
	share, err := s.donations.FindFoodShareByProductName(ctx, productName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Food share item not found. Most likely have been deleted")
		}
		return nil, err
	}
	return share, nil
}

// ListProductNames returns every catalog product name as key/value options
func (s *DonationService) ListProductNames(ctx context.Context) ([]NameOption, error) {
	names, err := s.products.Names(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]NameOption, len(names))
	for i, name := range names {
		options[i] = NameOption{Key: name, Value: name}
	}
	return options, nil
}

// CreateOrderShare records a user's claim on a listed portion
func (s *DonationService) CreateOrderShare(ctx context.Context, userID string, input OrderShareInput) (*models.OrderShare, error) {
	if _, err := s.accounts.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Seems your account has been deleted")
		}
		return nil, err
	}

	claim := &models.OrderShare{
		ProductName: strings.TrimSpace(input.ProductName),
		Portion:     strings.TrimSpace(input.Portion),
		Name:        strings.TrimSpace(input.Name),
		Address:     strings.TrimSpace(input.Address),
		Phone:       strings.TrimSpace(input.Phone),
		UserID:      userID,
		Status:      models.ShareStatusSent,
	}
	if claim.ProductName == "" || claim.Portion == "" || claim.Name == "" || claim.Address == "" || claim.Phone == "" {
		return nil, NewValidationError("Missing required fields")
	}

	share, err := s.donations.FindFoodShareByProductName(ctx, claim.ProductName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("This item no longer exist as a food share item")
		}
		return nil, err
	}
	if !slices.Contains(share.Portions, claim.Portion) {
		return nil, NewValidationError("This portion is not offered for this food share item")
	}

	if err := s.donations.CreateOrderShare(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *DonationService) ListOrderShares(ctx context.Context) ([]models.OrderShare, error) {
	claims, err := s.donations.ListOrderShares(ctx)
	if claims == nil {
		claims = []models.OrderShare{}
	}
	return claims, err
}

// UpdateOrderShareStatus accepts or rejects a claim
func (s *DonationService) UpdateOrderShareStatus(ctx context.Context, id, status string) (*models.OrderShare, error) {
	if !models.ValidShareStatus(status) {
		return nil, NewValidationError("Invalid status. Must be one of: sent, accepted, rejected")
	}
	if err := s.donations.UpdateOrderShareStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Order share not found")
		}
		return nil, err
	}
	return s.donations.FindOrderShareByID(ctx, id)
}

func (s *DonationService) requireProduct(ctx context.Context, name, message string) error {
	if _, err := s.products.FindByName(ctx, name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NewNotFoundError(message)
		}
		return err
	}
	return nil
}

func validateFoodShareInput(input FoodShareInput) (string, []string, error) {
	productName := strings.TrimSpace(input.ProductName)
	var portions []string
	for _, p := range input.Portions {
		if p = strings.TrimSpace(p); p != "" {
			portions = append(portions, p)
		}
	}
	if productName == "" || len(portions) == 0 {
		return "", nil, NewValidationError("Missing parameters")
	}
	return productName, portions, nil
}

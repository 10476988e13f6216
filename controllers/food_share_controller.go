package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/services"
)

// UpdateClaimStatusRequest represents the request body for reviewing a claim
type UpdateClaimStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FoodShareController serves donation listings and claims
type FoodShareController struct {
	donations *services.DonationService
}

func NewFoodShareController(donations *services.DonationService) *FoodShareController {
	return &FoodShareController{donations: donations}
}

// ListFoodShares handles GET /api/v1/food-share
func (fc *FoodShareController) ListFoodShares(c *gin.Context) {
	shares, err := fc.donations.ListFoodShares(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, shares)
}

// ListProductNames handles GET /api/v1/food-share/names
func (fc *FoodShareController) ListProductNames(c *gin.Context) {
	names, err := fc.donations.ListProductNames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, names)
}

// GetFoodShare handles GET /api/v1/food-share/product/:productName
func (fc *FoodShareController) GetFoodShare(c *gin.Context) {
	share, err := fc.donations.GetFoodShare(c.Request.Context(), c.Param("productName"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, share)
}

// CreateFoodShare handles POST /api/v1/food-share (admin)
func (fc *FoodShareController) CreateFoodShare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.FoodShareInput
	if !bindJSON(c, &req) {
		return
	}

	share, err := fc.donations.CreateFoodShare(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, share)
}

// UpdateFoodShare handles PUT /api/v1/food-share/:id (admin)
func (fc *FoodShareController) UpdateFoodShare(c *gin.Context) {
	var req services.FoodShareInput
	if !bindJSON(c, &req) {
		return
	}

	share, err := fc.donations.UpdateFoodShare(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, share)
}

// DeleteFoodShare handles DELETE /api/v1/food-share/:id (admin)
func (fc *FoodShareController) DeleteFoodShare(c *gin.Context) {
	if err := fc.donations.DeleteFoodShare(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Food share deleted")
}

// CreateClaim handles POST /api/v1/food-share/claims
func (fc *FoodShareController) CreateClaim(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.OrderShareInput
	if !bindJSON(c, &req) {
		return
	}

	claim, err := fc.donations.CreateOrderShare(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, claim)
}

// ListClaims handles GET /api/v1/food-share/claims (admin)
func (fc *FoodShareController) ListClaims(c *gin.Context) {
	claims, err := fc.donations.ListOrderShares(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, claims)
}

// UpdateClaimStatus handles PATCH /api/v1/food-share/claims/:id/status (admin)
func (fc *FoodShareController) UpdateClaimStatus(c *gin.Context) {
	var req UpdateClaimStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	claim, err := fc.donations.UpdateOrderShareStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, claim)
}

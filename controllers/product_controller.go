package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/services"
)

// ProductController serves the catalog
type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// ListProducts handles GET /api/v1/products
func (pc *ProductController) ListProducts(c *gin.Context) {
	page, err := pc.catalog.List(c.Request.Context(), pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// GetProductByName handles GET /api/v1/products/name/:name
func (pc *ProductController) GetProductByName(c *gin.Context) {
	product, err := pc.catalog.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// ListByCategory handles GET /api/v1/products/category/:category
func (pc *ProductController) ListByCategory(c *gin.Context) {
	page, err := pc.catalog.ListByCategory(c.Request.Context(), c.Param("category"), pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// RandomCategory handles GET /api/v1/products/random-category
func (pc *ProductController) RandomCategory(c *gin.Context) {
	result, err := pc.catalog.RandomCategory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// SearchProducts handles GET /api/v1/products/search?search=
func (pc *ProductController) SearchProducts(c *gin.Context) {
	page, err := pc.catalog.Search(c.Request.Context(), c.Query("search"), pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// CreateProduct handles POST /api/v1/products (admin)
func (pc *ProductController) CreateProduct(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.catalog.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, product)
}

// EditProduct handles PUT /api/v1/products/:id (admin)
func (pc *ProductController) EditProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.catalog.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id (admin)
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := pc.catalog.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

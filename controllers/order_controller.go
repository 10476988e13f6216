package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/middleware"
	"github.com/sayfoods/sayfoods-api/services"
)

// UpdateOrderStatusRequest represents the request body for an admin status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderController serves customer and admin order endpoints
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// CreateOrder handles POST /api/v1/orders - returns the new order id
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"id": order.ID})
}

// ListUserOrders handles GET /api/v1/orders
func (oc *OrderController) ListUserOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := oc.orders.ListUserOrders(c.Request.Context(), userID, pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// GetOrder handles GET /api/v1/orders/:id - owner or admin only
func (oc *OrderController) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	order, err := oc.orders.GetOrder(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status (admin)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.orders.AdminUpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/admin/orders?status=&page=
func (oc *OrderController) ListOrders(c *gin.Context) {
	page, err := oc.orders.ListOrders(c.Request.Context(), pageParam(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// SearchOrders handles GET /api/v1/admin/orders/search?orderId=&page=
func (oc *OrderController) SearchOrders(c *gin.Context) {
	page, err := oc.orders.SearchOrders(c.Request.Context(), c.Query("orderId"), pageParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// Dashboard handles GET /api/v1/admin/dashboard
func (oc *OrderController) Dashboard(c *gin.Context) {
	dashboard, err := oc.orders.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dashboard)
}

package controllers

import "github.com/gin-gonic/gin"

// Handlers groups every controller the router serves
type Handlers struct {
	Health     *HealthController
	Users      *UserController
	Products   *ProductController
	Orders     *OrderController
	Payments   *PaymentController
	FoodShares *FoodShareController
}

// RegisterRoutes mounts the API under /api/v1. requireAuth must run before
// requireAdmin on admin routes.
func RegisterRoutes(router *gin.Engine, h Handlers, requireAuth, requireAdmin gin.HandlerFunc) {
	v1 := router.Group("/api/v1")
	admin := []gin.HandlerFunc{requireAuth, requireAdmin}

	v1.GET("/health", h.Health.HealthCheck)

	users := v1.Group("/users")
	{
		users.POST("/signup", h.Users.SignUp)
		users.POST("/signin", h.Users.SignIn)
		users.POST("/logout", requireAuth, h.Users.LogOut)
		users.GET("", requireAuth, h.Users.GetDetails)
		users.PATCH("", requireAuth, h.Users.EditDetails)
		users.PATCH("/password", requireAuth, h.Users.ChangePassword)
		users.GET("/session", requireAuth, h.Users.CheckSession)
	}

	products := v1.Group("/products")
	{
		products.GET("", h.Products.ListProducts)
		products.GET("/name/:name", h.Products.GetProductByName)
		products.GET("/category/:category", h.Products.ListByCategory)
		products.GET("/random-category", h.Products.RandomCategory)
		products.GET("/search", h.Products.SearchProducts)
		products.POST("", append(admin, h.Products.CreateProduct)...)
		products.PUT("/:id", append(admin, h.Products.EditProduct)...)
		products.DELETE("/:id", append(admin, h.Products.DeleteProduct)...)
	}

	orders := v1.Group("/orders")
	{
		orders.POST("", requireAuth, h.Orders.CreateOrder)
		orders.GET("", requireAuth, h.Orders.ListUserOrders)
		orders.GET("/:id", requireAuth, h.Orders.GetOrder)
		orders.PATCH("/:id/status", append(admin, h.Orders.UpdateOrderStatus)...)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("/initialize", requireAuth, h.Payments.InitializePayment)
		payments.POST("/verify", requireAuth, h.Payments.VerifyPayment)
		payments.POST("/webhook", h.Payments.Webhook)
	}

	adminGroup := v1.Group("/admin", admin...)
	{
		adminGroup.GET("/orders", h.Orders.ListOrders)
		adminGroup.GET("/orders/search", h.Orders.SearchOrders)
		adminGroup.GET("/dashboard", h.Orders.Dashboard)
	}

	foodShare := v1.Group("/food-share")
	{
		foodShare.GET("", h.FoodShares.ListFoodShares)
		foodShare.GET("/names", h.FoodShares.ListProductNames)
		foodShare.GET("/product/:productName", h.FoodShares.GetFoodShare)
		foodShare.POST("", append(admin, h.FoodShares.CreateFoodShare)...)
		foodShare.PUT("/:id", append(admin, h.FoodShares.UpdateFoodShare)...)
		foodShare.DELETE("/:id", append(admin, h.FoodShares.DeleteFoodShare)...)
		foodShare.POST("/claims", requireAuth, h.FoodShares.CreateClaim)
		foodShare.GET("/claims", append(admin, h.FoodShares.ListClaims)...)
		foodShare.PATCH("/claims/:id/status", append(admin, h.FoodShares.UpdateClaimStatus)...)
	}
}

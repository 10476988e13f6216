package controllers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/middleware"
	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/services"
	"github.com/sayfoods/sayfoods-api/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	provider *services.MockPaymentProvider
	images   *services.MockImageService
	accounts *services.AccountService
	handlers Handlers
	customer *models.User
	admin    *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	env := &testEnv{
		db:       db,
		cfg:      cfg,
		provider: services.NewMockPaymentProvider(),
		images:   services.NewMockImageService(),
	}

	tokens, err := services.NewTokenService(cfg)
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}

	accountRepo := repositories.NewAccountRepository(db)
	productRepo := repositories.NewProductRepository(db)
	env.accounts = services.NewAccountService(accountRepo, repositories.NewSessionRepository(db), tokens, cfg.SessionTTL).
		WithHashCost(bcrypt.MinCost)
	orders := services.NewOrderService(
		repositories.NewOrderRepository(db),
		accountRepo,
		productRepo,
		env.provider,
		services.NoopPublisher{},
		services.OrderServiceConfigFrom(cfg),
	)

	env.handlers = Handlers{
		Health:     NewHealthController(db),
		Users:      NewUserController(env.accounts, cfg),
		Products:   NewProductController(services.NewCatalogService(productRepo, env.images)),
		Orders:     NewOrderController(orders),
		Payments:   NewPaymentController(orders, services.NewPaystackService(cfg)),
		FoodShares: NewFoodShareController(services.NewDonationService(repositories.NewDonationRepository(db), productRepo, accountRepo)),
	}

	env.customer = testutil.CreateUser(t, db, "ada", "secret1", false)
	env.admin = testutil.CreateUser(t, db, "admin", "secret1", true)
	return env
}

// router authenticates every request as userID; an empty id means anonymous
func (e *testEnv) router(userID string, isAdmin bool) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router, e.handlers, testutil.MockAuthMiddleware(userID, isAdmin), middleware.RequireAdmin(e.accounts))
	return router
}

func (e *testEnv) asCustomer() *gin.Engine { return e.router(e.customer.ID, false) }
func (e *testEnv) asAdmin() *gin.Engine    { return e.router(e.admin.ID, true) }
func (e *testEnv) anonymous() *gin.Engine  { return e.router("", false) }

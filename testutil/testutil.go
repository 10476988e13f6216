package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a migrated in-memory SQLite database.
// The pool is pinned to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// TestConfig returns a configuration suitable for tests
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:           "file::memory:",
		Port:                  "8000",
		GoEnv:                 "test",
		SessionSecret:         "test-session-secret",
		SessionTTL:            24 * time.Hour,
		PaystackTestSecretKey: "sk_test_secret",
		PaystackBaseURL:       "http://paystack.invalid",
		PaymentSessionTTL:     8 * time.Hour,
		OrderStatusPolicy:     config.StatusPolicyPermissive,
		CORSOrigins:           []string{"http://localhost:5173"},
		LogLevel:              "error",
	}
}

// CreateUser inserts an account with the given password
func CreateUser(t *testing.T, db *gorm.DB, userName, password string, isAdmin bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		UserName:     userName,
		Phone:        "08012345678",
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateProduct inserts a catalog product
func CreateProduct(t *testing.T, db *gorm.DB, name string, price float64, category models.Category, creatorID string) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    category,
		ImageKey:    "products/" + name + ".png",
		Stock:       10,
		CreatorID:   creatorID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

// CreateOrder inserts an unpaid order for user with one line per product
func CreateOrder(t *testing.T, db *gorm.DB, userID string, total float64, products ...*models.Product) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID: userID,
		ShippingAddress: models.ShippingAddress{
			FullName:   "Ada Obi",
			Email:      "ada@example.com",
			State:      "Lagos",
			Address:    "1 Marina Road",
			Country:    "Nigeria",
			City:       "Lagos",
			PostalCode: "100001",
		},
		PriceDetails: models.PriceDetails{
			SubTotal:   total,
			TotalPrice: total,
		},
		OrderStatus: models.OrderStatusNotOrdered,
	}
	for _, p := range products {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.ImageKey,
			Quantity:  1,
			ProductID: p.ID,
		})
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

// MockAuthMiddleware authenticates every request as the given user
func MockAuthMiddleware(userID string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("session_id", "test-session")
		c.Set("is_admin", isAdmin)
		c.Next()
	}
}

// PerformRequest sends a JSON request through router and records the response
func PerformRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// DecodeResponse unmarshals the response body into a generic map
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return response
}

// ErrorCode extracts error.code from an error envelope
func ErrorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

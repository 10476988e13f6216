package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Order status transition policies accepted in ORDER_STATUS_POLICY
const (
	StatusPolicyPermissive  = "permissive"
	StatusPolicyForwardOnly = "forward_only"
)

// Session token claims shared by the issuer and the auth middleware
const (
	TokenIssuer   = "sayfoods-api"
	TokenAudience = "sayfoods-client"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL           string
	Port                  string
	GoEnv                 string
	SessionSecret         string
	SessionTTL            time.Duration
	PaystackTestSecretKey string
	PaystackLiveSecretKey string
	PaystackBaseURL       string
	PaymentSessionTTL     time.Duration
	StrictPricing         bool
	OrderStatusPolicy     string
	AWSRegion             string
	AWSS3Bucket           string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	NATSURL               string
	CORSOrigins           []string
	LogLevel              string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production the environment is set directly
			log.Debug().Msg("No .env file found, using system environment variables")
		}
	} else {
		log.Debug().Str("file", envFile).Msg("Loaded configuration")
	}

	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Port:                  getEnv("PORT", "8000"),
		GoEnv:                 getEnv("GO_ENV", "development"),
		SessionSecret:         getEnv("SESSION_SECRET", ""),
		SessionTTL:            getDuration("SESSION_TTL", 24*time.Hour),
		PaystackTestSecretKey: getEnv("PAYSTACK_TEST_SECRET_KEY", ""),
		PaystackLiveSecretKey: getEnv("PAYSTACK_LIVE_SECRET_KEY", ""),
		PaystackBaseURL:       getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaymentSessionTTL:     getDuration("PAYMENT_SESSION_TTL", 8*time.Hour),
		StrictPricing:         getBool("STRICT_PRICING", false),
		OrderStatusPolicy:     getEnv("ORDER_STATUS_POLICY", StatusPolicyPermissive),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:           getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		NATSURL:               getEnv("NATS_URL", ""),
		CORSOrigins:           getList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.IsProduction() && c.PaystackLiveSecretKey == "" {
		return fmt.Errorf("PAYSTACK_LIVE_SECRET_KEY is required in production")
	}
	if c.PaymentSessionTTL <= 0 {
		return fmt.Errorf("PAYMENT_SESSION_TTL must be positive")
	}
	switch c.OrderStatusPolicy {
	case StatusPolicyPermissive, StatusPolicyForwardOnly:
	default:
		return fmt.Errorf("ORDER_STATUS_POLICY must be %q or %q", StatusPolicyPermissive, StatusPolicyForwardOnly)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// PaystackSecretKey returns the live key in production and the test key everywhere else
func (c *Config) PaystackSecretKey() string {
	if c.IsProduction() {
		return c.PaystackLiveSecretKey
	}
	return c.PaystackTestSecretKey
}

// SessionSigningKey derives the 256-bit HS256 key for session tokens from SESSION_SECRET
func (c *Config) SessionSigningKey() []byte {
	sum := sha256.Sum256([]byte(c.SessionSecret))
	return sum[:]
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid boolean, using default")
		return defaultValue
	}
	return b
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

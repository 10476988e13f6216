package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/controllers"
	"github.com/sayfoods/sayfoods-api/middleware"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/services"
	"github.com/sayfoods/sayfoods-api/utils"
	"gorm.io/gorm"
)

// maxBodyBytes fits a base64 encoded image of utils.MaxFileSize plus the other product fields
const maxBodyBytes = utils.MaxFileSize*4/3 + 1<<20

const sessionSweepInterval = time.Hour

// dependencies are the external systems the router talks to
type dependencies struct {
	images    services.ImageService
	provider  services.PaymentProvider
	webhooks  controllers.WebhookVerifier
	publisher services.EventPublisher
}

// newRouter wires repositories, services and controllers into a gin engine
func newRouter(cfg *config.Config, db *gorm.DB, deps dependencies) (*gin.Engine, error) {
	tokens, err := services.NewTokenService(cfg)
	if err != nil {
		return nil, err
	}

	accountRepo := repositories.NewAccountRepository(db)
	productRepo := repositories.NewProductRepository(db)

	accounts := services.NewAccountService(accountRepo, repositories.NewSessionRepository(db), tokens, cfg.SessionTTL)
	catalog := services.NewCatalogService(productRepo, deps.images)
	orders := services.NewOrderService(
		repositories.NewOrderRepository(db),
		accountRepo,
		productRepo,
		deps.provider,
		deps.publisher,
		services.OrderServiceConfigFrom(cfg),
	)
	donations := services.NewDonationService(repositories.NewDonationRepository(db), productRepo, accountRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(limitBody(maxBodyBytes))

	controllers.RegisterRoutes(router, controllers.Handlers{
		Health:     controllers.NewHealthController(db),
		Users:      controllers.NewUserController(accounts, cfg),
		Products:   controllers.NewProductController(catalog),
		Orders:     controllers.NewOrderController(orders),
		Payments:   controllers.NewPaymentController(orders, deps.webhooks),
		FoodShares: controllers.NewFoodShareController(donations),
	},
		middleware.EnsureValidToken(cfg, accounts),
		middleware.RequireAdmin(accounts),
	)

	return router, nil
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// serve runs the API until SIGINT or SIGTERM, then drains in-flight requests
func serve(parent context.Context, cfg *config.Config, db *gorm.DB) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	s3Service, err := services.NewS3Service(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 service: %w", err)
	}
	paystack := services.NewPaystackService(cfg)
	publisher := services.NewEventPublisher(ctx, cfg.NATSURL)
	defer publisher.Close()

	router, err := newRouter(cfg, db, dependencies{
		images:    services.NewImageService(s3Service),
		provider:  paystack,
		webhooks:  paystack,
		publisher: publisher,
	})
	if err != nil {
		return err
	}

	go sweepSessions(ctx, repositories.NewSessionRepository(db))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.GoEnv).Msg("Server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Server stopped gracefully")
	return nil
}

// sweepSessions deletes expired session rows until ctx is cancelled
func sweepSessions(ctx context.Context, sessions *repositories.SessionRepository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := sessions.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to delete expired sessions")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("Deleted expired sessions")
			}
		}
	}
}

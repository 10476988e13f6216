package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/middleware"
	"github.com/sayfoods/sayfoods-api/services"
)

// PaystackSignatureHeader carries the webhook body signature
const PaystackSignatureHeader = "x-paystack-signature"

const eventChargeSuccess = "charge.success"

// WebhookVerifier checks that a webhook body was signed by the payment provider
type WebhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

// InitializePaymentRequest represents the request body for opening a checkout session
type InitializePaymentRequest struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
}

// VerifyPaymentRequest represents the request body for verifying a payment
type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// PaymentController drives the checkout workflow
type PaymentController struct {
	orders   *services.OrderService
	webhooks WebhookVerifier
}

func NewPaymentController(orders *services.OrderService, webhooks WebhookVerifier) *PaymentController {
	return &PaymentController{orders: orders, webhooks: webhooks}
}

// InitializePayment handles POST /api/v1/payments/initialize - returns the access code
func (pc *PaymentController) InitializePayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req InitializePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	accessCode, err := pc.orders.InitializePaymentSession(c.Request.Context(), req.OrderID, req.Email, userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"accessCode": accessCode})
}

// VerifyPayment handles POST /api/v1/payments/verify
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := pc.orders.VerifyPayment(c.Request.Context(), req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment successful",
		"data":    order,
	})
}

// Webhook handles POST /api/v1/payments/webhook. Events are acknowledged once
// handled; only unexpected failures return 5xx so the provider redelivers.
func (pc *PaymentController) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Could not read request body")
		return
	}
	if !pc.webhooks.VerifyWebhookSignature(body, c.GetHeader(PaystackSignatureHeader)) {
		respondErrorCode(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "Invalid webhook signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid webhook payload")
		return
	}
	if event.Event != eventChargeSuccess {
		respondMessage(c, "Event ignored")
		return
	}

	if _, err := pc.orders.VerifyPayment(c.Request.Context(), event.Data.Reference); err != nil {
		var svcErr *services.Error
		if !errors.As(err, &svcErr) {
			respondError(c, err)
			return
		}
		log.Warn().Err(err).Str("reference", event.Data.Reference).Msg("Webhook payment not reconciled")
	}
	respondMessage(c, "Event processed")
}

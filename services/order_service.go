package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/utils"
	"github.com/shopspring/decimal"
)

// Page sizes for order listings
const (
	UserOrdersPageSize   = 5
	AdminOrdersPageSize  = 5
	SearchOrdersPageSize = 5
	minOrderSearchLength = 4
	referencePrefix      = "SAYFOODS"
)

// publishTimeout caps how long an event publish may hold up the request that caused it
const publishTimeout = 2 * time.Second

// OrderStore persists orders
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	SaveSession(ctx context.Context, order *models.Order) error
	MarkPaid(ctx context.Context, order *models.Order) error
	RecordPaymentAttempt(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error)
	ListByStatuses(ctx context.Context, statuses []models.OrderStatus, offset, limit int) ([]models.Order, int64, error)
	SearchByID(ctx context.Context, term string, offset, limit int) ([]models.Order, int64, error)
	CountByStatuses(ctx context.Context, statuses []models.OrderStatus) (int64, error)
	SumAmountPaid(ctx context.Context, statuses []models.OrderStatus) (float64, error)
}

// AccountLookup resolves accounts referenced by orders
type AccountLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProductLookup resolves products referenced by order items
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

// OrderItemInput is one cart line submitted by the customer
type OrderItemInput struct {
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"gte=0"`
	Image     string  `json:"image" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	ProductID string  `json:"productId" binding:"required"`
}

// CreateOrderInput is the checkout payload
type CreateOrderInput struct {
	OrderItems      []OrderItemInput        `json:"orderItems" binding:"dive"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PriceDetails    *models.PriceDetails    `json:"priceDetails"`
}

// Dashboard is the admin summary of orders and revenue
type Dashboard struct {
	UserCount           int64   `json:"userCount"`
	OrderCount          int64   `json:"orderCount"`
	OrderPendingCount   int64   `json:"orderPendingCount"`
	OrderShippedCount   int64   `json:"orderShippedCount"`
	OrderDeliveredCount int64   `json:"orderDeliveredCount"`
	OrderCancelledCount int64   `json:"orderCancelledCount"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// OrderServiceConfig tunes the payment workflow
type OrderServiceConfig struct {
	PaymentSessionTTL time.Duration
	StrictPricing     bool
	StatusPolicy      string
}

// OrderServiceConfigFrom extracts the workflow settings from the application config
func OrderServiceConfigFrom(cfg *config.Config) OrderServiceConfig {
	return OrderServiceConfig{
		PaymentSessionTTL: cfg.PaymentSessionTTL,
		StrictPricing:     cfg.StrictPricing,
		StatusPolicy:      cfg.OrderStatusPolicy,
	}
}

// OrderService runs the order and payment reconciliation workflow
type OrderService struct {
	orders    OrderStore
	accounts  AccountLookup
	products  ProductLookup
	provider  PaymentProvider
	publisher EventPublisher
	cfg       OrderServiceConfig
	now       func() time.Time
}

// NewOrderService wires the workflow to its stores and the payment provider
func NewOrderService(orders OrderStore, accounts AccountLookup, products ProductLookup, provider PaymentProvider, publisher EventPublisher, cfg OrderServiceConfig) *OrderService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if cfg.PaymentSessionTTL <= 0 {
		cfg.PaymentSessionTTL = 8 * time.Hour
	}
	if cfg.StatusPolicy == "" {
		cfg.StatusPolicy = config.StatusPolicyPermissive
	}
	return &OrderService{
		orders:    orders,
		accounts:  accounts,
		products:  products,
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// CreateOrder validates the cart against the catalog and stores an unpaid order
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*models.Order, error) {
	if _, err := s.accounts.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Seems your account has been deleted")
		}
		return nil, err
	}

	switch {
	case len(input.OrderItems) == 0:
		return nil, NewValidationError("Order items are required")
	case input.ShippingAddress == nil:
		return nil, NewValidationError("Shipping address is required")
	case input.PriceDetails == nil:
		return nil, NewValidationError("Price details are required")
	}
	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return nil, err
	}
	if err := validatePriceDetails(input.PriceDetails); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.OrderItems))
	var missing []string
	subTotal := decimal.Zero
	for _, in := range input.OrderItems {
		product, err := s.products.FindByID(ctx, in.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			missing = append(missing, in.Name)
			continue
		}
		if err != nil {
			return nil, err
		}

		item := models.OrderItem{
			Name:      in.Name,
			Price:     in.Price,
			Image:     in.Image,
			Quantity:  in.Quantity,
			ProductID: in.ProductID,
		}
		if s.cfg.StrictPricing {
			item.Price = product.Price
		}
		subTotal = subTotal.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, item)
	}
	if len(missing) > 0 {
		return nil, NewValidationError(fmt.Sprintf("Product(s) not found: %s. Please remove these items from your cart.", strings.Join(missing, ", ")))
	}

	prices := *input.PriceDetails
	if s.cfg.StrictPricing {
		prices.SubTotal = subTotal.InexactFloat64()
		prices.TotalPrice = subTotal.
			Add(decimal.NewFromFloat(prices.TaxPrice)).
			Add(decimal.NewFromFloat(prices.ShippingPrice)).
			InexactFloat64()
	}

	order := &models.Order{
		OrderItems:      items,
		ShippingAddress: *input.ShippingAddress,
		PriceDetails:    prices,
		OrderStatus:     models.OrderStatusNotOrdered,
		UserID:          userID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, SubjectOrderCreated, order)
	return order, nil
}

// InitializePaymentSession returns a provider access code for the order,
// reusing the stored one while it is still fresh. Only the owner or an admin may open checkout.
func (s *OrderService) InitializePaymentSession(ctx context.Context, orderID, email, requesterID string, isAdmin bool) (string, error) {
	orderID = strings.TrimSpace(orderID)
	email = strings.TrimSpace(email)
	if orderID == "" || email == "" {
		return "", NewValidationError("Order ID and email are required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", NewNotFoundError("Order not found")
		}
		return "", err
	}
	if !isAdmin && order.UserID != requesterID {
		return "", NewForbiddenError("You do not have permission to pay for this order")
	}
	if order.IsPaid {
		return "", NewConflictError("ORDER_ALREADY_PAID", "Order already paid")
	}

	now := s.now()
	if order.HasFreshSession(now, s.cfg.PaymentSessionTTL) {
		return order.AccessCode, nil
	}

	reference := fmt.Sprintf("%s_%s_%d", referencePrefix, order.ID, now.UnixMilli())
	res, err := s.provider.InitializeTransaction(ctx, InitializeRequest{
		Email:     email,
		Amount:    toMinorUnits(order.PriceDetails.TotalPrice),
		Channels:  PaymentChannels,
		Reference: reference,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("Failed to initialize payment")
		return "", NewUpstreamError("PAYMENT_PROVIDER_ERROR", "Failed to initialize payment", err)
	}
	if res.Reference != "" {
		reference = res.Reference
	}

	order.AccessCode = res.AccessCode
	order.AccessCodeCreatedAt = &now
	order.TransactionReference = &reference
	order.PaymentResult.Reference = reference
	order.PaymentResult.Status = models.PaymentStatusPending
	if err := s.orders.SaveSession(ctx, order); err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) || errors.Is(err, repositories.ErrDuplicate) {
			return "", NewConflictError("ORDER_CHANGED", "Order changed while initializing payment. Please try again.")
		}
		return "", err
	}
	return res.AccessCode, nil
}

// VerifyPayment reconciles the provider's verdict for reference with the order.
// A pending or failed verdict is persisted and then reported as an upstream error.
func (s *OrderService) VerifyPayment(ctx context.Context, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, NewValidationError("Reference is required")
	}

	order, err := s.orders.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Order not found")
		}
		return nil, err
	}
	if order.IsPaid {
		return order, nil
	}

	tx, err := s.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("Failed to verify payment")
		return nil, NewUpstreamError("PAYMENT_PROVIDER_ERROR", "Failed to verify payment", err)
	}

	if tx.Status == models.PaymentStatusSuccess {
		return s.markPaid(ctx, order, reference, tx)
	}

	status := models.PaymentStatusFailed
	if tx.Status == models.PaymentStatusPending {
		status = models.PaymentStatusPending
	}
	order.PaymentResult.Status = status
	order.PaymentResult.GatewayResponse = tx.GatewayResponse
	order.PaymentResult.Channel = tx.Channel
	order.PaymentResult.Email = tx.CustomerEmail
	if err := s.orders.RecordPaymentAttempt(ctx, order); err != nil {
		if !errors.Is(err, repositories.ErrStaleWrite) {
			return nil, err
		}
		// A concurrent verification or webhook may have settled the order meanwhile
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current.IsPaid {
			return current, nil
		}
	}

	return nil, NewUpstreamError("PAYMENT_NOT_SUCCESSFUL",
		fmt.Sprintf("Payment is %s. Please try again later if pending.", tx.Status), nil)
}

func (s *OrderService) markPaid(ctx context.Context, order *models.Order, reference string, tx *VerifyResponse) (*models.Order, error) {
	now := s.now()
	order.IsPaid = true
	order.PaidAt = &now
	order.OrderStatus = models.OrderStatusProcessing
	order.PaymentMethod = tx.Channel
	order.PaymentResult = models.PaymentResult{
		Reference:       reference,
		Status:          models.PaymentStatusSuccess,
		GatewayResponse: tx.GatewayResponse,
		PaidAt:          &now,
		Channel:         tx.Channel,
		Email:           tx.CustomerEmail,
		AmountPaid:      fromMinorUnits(tx.Amount),
	}

	err := s.orders.MarkPaid(ctx, order)
	if errors.Is(err, repositories.ErrStaleWrite) {
		// a concurrent verification may have won
		current, findErr := s.orders.FindByID(ctx, order.ID)
		if findErr == nil && current.IsPaid {
			return current, nil
		}
		return nil, NewConflictError("ORDER_CHANGED", "Order changed while verifying payment. Please try again.")
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", order.ID).Str("reference", reference).Float64("amount", order.PaymentResult.AmountPaid).Msg("Order paid")
	s.publish(ctx, SubjectOrderPaid, order)
	return order, nil
}

// AdminUpdateOrderStatus moves an order to status, honouring the configured transition policy
func (s *OrderService) AdminUpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(status) == "" {
		return nil, NewValidationError("Order ID and status are required")
	}
	next, ok := models.ParseAdminOrderStatus(status)
	if !ok {
		return nil, NewValidationError("Invalid status. Must be one of: processing, shipped, delivered, cancelled")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Order not found")
		}
		return nil, err
	}

	if s.cfg.StatusPolicy == config.StatusPolicyForwardOnly && !models.IsForwardTransition(order.OrderStatus, next) {
		return nil, NewConflictError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot change order status from %s to %s", order.OrderStatus, next))
	}

	order.OrderStatus = next
	if next == models.OrderStatusDelivered {
		now := s.now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	} else {
		order.IsDelivered = false
		order.DeliveredAt = nil
	}

	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) {
			return nil, NewConflictError("ORDER_CHANGED", "Order changed while updating status. Please try again.")
		}
		return nil, err
	}

	s.publish(ctx, SubjectOrderStatusUpdated, order)
	return order, nil
}

// GetOrder returns an order to its owner or an admin
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("Order not found")
		}
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, NewForbiddenError("You do not have permission to view this order")
	}
	return order, nil
}

// ListUserOrders returns the caller's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page int) (utils.Page[models.Order], error) {
	if _, err := s.accounts.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.Page[models.Order]{}, NewNotFoundError("Seems your account has been deleted")
		}
		return utils.Page[models.Order]{}, err
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, utils.Offset(page, UserOrdersPageSize), UserOrdersPageSize)
	if err != nil {
		return utils.Page[models.Order]{}, err
	}
	return utils.NewPage(orders, page, UserOrdersPageSize, total), nil
}

// ListOrders returns placed orders, optionally filtered to one status
func (s *OrderService) ListOrders(ctx context.Context, page int, status string) (utils.Page[models.Order], error) {
	statuses := models.PlacedOrderStatuses
	if status != "" {
		st, ok := models.ParsePlacedOrderStatus(status)
		if !ok {
			return utils.Page[models.Order]{}, NewValidationError("Invalid status. Must be one of: shipped, delivered, processing, cancelled")
		}
		statuses = []models.OrderStatus{st}
	}

	orders, total, err := s.orders.ListByStatuses(ctx, statuses, utils.Offset(page, AdminOrdersPageSize), AdminOrdersPageSize)
	if err != nil {
		return utils.Page[models.Order]{}, err
	}
	return utils.NewPage(orders, page, AdminOrdersPageSize, total), nil
}

// SearchOrders finds placed orders whose id contains term
func (s *OrderService) SearchOrders(ctx context.Context, term string, page int) (utils.Page[models.Order], error) {
	term = strings.TrimSpace(term)
	if len(term) < minOrderSearchLength {
		return utils.Page[models.Order]{}, NewValidationError(fmt.Sprintf("Search term must be at least %d characters", minOrderSearchLength))
	}

	orders, total, err := s.orders.SearchByID(ctx, term, utils.Offset(page, SearchOrdersPageSize), SearchOrdersPageSize)
	if err != nil {
		return utils.Page[models.Order]{}, err
	}
	return utils.NewPage(orders, page, SearchOrdersPageSize, total), nil
}

// Dashboard summarises users, orders by status and revenue
func (s *OrderService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error

	if d.UserCount, err = s.accounts.Count(ctx); err != nil {
		return nil, err
	}
	if d.OrderCount, err = s.orders.CountByStatuses(ctx, models.PlacedOrderStatuses); err != nil {
		return nil, err
	}

	counts := []struct {
		status models.OrderStatus
		dst    *int64
	}{
		{models.OrderStatusProcessing, &d.OrderPendingCount},
		{models.OrderStatusShipped, &d.OrderShippedCount},
		{models.OrderStatusDelivered, &d.OrderDeliveredCount},
		{models.OrderStatusCancelled, &d.OrderCancelledCount},
	}
	for _, c := range counts {
		if *c.dst, err = s.orders.CountByStatuses(ctx, []models.OrderStatus{c.status}); err != nil {
			return nil, err
		}
	}

	if d.TotalRevenue, err = s.orders.SumAmountPaid(ctx, models.RevenueOrderStatuses); err != nil {
		return nil, err
	}
	return &d, nil
}

// publish sends an order event without failing the request that caused it
func (s *OrderService) publish(ctx context.Context, subject string, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, subject, NewOrderEvent(order, s.now())); err != nil {
		log.Error().Err(err).Str("subject", subject).Str("order_id", order.ID).Msg("Failed to publish order event")
	}
}

func validateShippingAddress(a *models.ShippingAddress) error {
	fields := []struct{ name, value string }{
		{"fullName", a.FullName},
		{"email", a.Email},
		{"country", a.Country},
		{"state", a.State},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"address", a.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(fmt.Sprintf("Shipping address %s is required", f.name))
		}
	}
	return nil
}

func validatePriceDetails(p *models.PriceDetails) error {
	if p.SubTotal < 0 || p.TaxPrice < 0 || p.ShippingPrice < 0 || p.TotalPrice < 0 {
		return NewValidationError("Prices cannot be negative")
	}
	return nil
}

// toMinorUnits converts a naira amount to kobo
func toMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// fromMinorUnits converts kobo to naira
func fromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

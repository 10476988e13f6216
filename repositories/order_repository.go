package repositories

import (
	"context"
	"strings"

	"github.com/sayfoods/sayfoods-api/models"
	"gorm.io/gorm"
)

// OrderRepository stores orders and their line items.
// Workflow writes are conditional updates: they report ErrStaleWrite instead of
// overwriting a row that changed since it was read.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order store backed by db
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order together with its items
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Create(order).Error, "failed to create order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find order")
	}
	return &order, nil
}

func (r *OrderRepository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).Where("transaction_reference = ?", reference).First(&order).Error; err != nil {
		return nil, translate(err, "failed to find order")
	}
	return &order, nil
}

// SaveSession persists a freshly created payment session on an unpaid order
func (r *OrderRepository) SaveSession(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ? AND is_paid = ?", order.ID, order.Version, false).
		Updates(map[string]interface{}{
			"access_code":            order.AccessCode,
			"access_code_created_at": order.AccessCodeCreatedAt,
			"transaction_reference":  order.TransactionReference,
			"payment_reference":      order.PaymentResult.Reference,
			"payment_status":         order.PaymentResult.Status,
			"version":                gorm.Expr("version + 1"),
		})
	return r.afterConditionalUpdate(order, res, "failed to save payment session")
}

// MarkPaid records a successful payment. It only matches an unpaid order at
// the version that was read, so the paid transition happens at most once.
func (r *OrderRepository) MarkPaid(ctx context.Context, order *models.Order) error {
	pr := order.PaymentResult
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ? AND is_paid = ?", order.ID, order.Version, false).
		Updates(map[string]interface{}{
			"is_paid":                  true,
			"paid_at":                  order.PaidAt,
			"order_status":             string(order.OrderStatus),
			"payment_method":           order.PaymentMethod,
			"payment_reference":        pr.Reference,
			"payment_status":           pr.Status,
			"payment_gateway_response": pr.GatewayResponse,
			"payment_paid_at":          pr.PaidAt,
			"payment_channel":          pr.Channel,
			"payment_email":            pr.Email,
			"payment_amount_paid":      pr.AmountPaid,
			"version":                  gorm.Expr("version + 1"),
		})
	return r.afterConditionalUpdate(order, res, "failed to mark order paid")
}

// RecordPaymentAttempt stores a non-successful verification outcome.
// A paid order is never downgraded.
func (r *OrderRepository) RecordPaymentAttempt(ctx context.Context, order *models.Order) error {
	pr := order.PaymentResult
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", order.ID, false).
		Updates(map[string]interface{}{
			"payment_status":           pr.Status,
			"payment_gateway_response": pr.GatewayResponse,
			"payment_channel":          pr.Channel,
			"payment_email":            pr.Email,
			"version":                  gorm.Expr("version + 1"),
		})
	return r.afterConditionalUpdate(order, res, "failed to record payment attempt")
}

// UpdateStatus persists an admin status change at the version that was read
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"order_status": string(order.OrderStatus),
			"is_delivered": order.IsDelivered,
			"delivered_at": order.DeliveredAt,
			"version":      gorm.Expr("version + 1"),
		})
	return r.afterConditionalUpdate(order, res, "failed to update order status")
}

// ListByUser returns a page of the user's orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	}, offset, limit)
}

// ListByStatuses returns a page of orders in any of statuses, newest first
func (r *OrderRepository) ListByStatuses(ctx context.Context, statuses []models.OrderStatus, offset, limit int) ([]models.Order, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("order_status IN ?", statusStrings(statuses))
	}, offset, limit)
}

// SearchByID matches term case-insensitively anywhere in the order id.
// Orders that were never placed are excluded.
func (r *OrderRepository) SearchByID(ctx context.Context, term string, offset, limit int) ([]models.Order, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where(`LOWER(id) LIKE ? ESCAPE '\'`, pattern).
			Where("order_status <> ?", string(models.OrderStatusNotOrdered))
	}, offset, limit)
}

func (r *OrderRepository) CountByStatuses(ctx context.Context, statuses []models.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_status IN ?", statusStrings(statuses)).
		Count(&count).Error
	return count, translate(err, "failed to count orders")
}

// SumAmountPaid totals paymentResult.amountPaid over orders in statuses
func (r *OrderRepository) SumAmountPaid(ctx context.Context, statuses []models.OrderStatus) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_status IN ?", statusStrings(statuses)).
		Select("COALESCE(SUM(payment_amount_paid), 0)").
		Scan(&total).Error
	return total, translate(err, "failed to sum revenue")
}

func (r *OrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "user_name", "is_admin")
		})
}

func (r *OrderRepository) page(ctx context.Context, filter func(*gorm.DB) *gorm.DB, offset, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := filter(r.db.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "failed to count orders")
	}

	var orders []models.Order
	err := filter(r.preloaded(ctx)).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, translate(err, "failed to list orders")
	}
	return orders, total, nil
}

func (r *OrderRepository) afterConditionalUpdate(order *models.Order, res *gorm.DB, action string) error {
	if res.Error != nil {
		return translate(res.Error, action)
	}
	if res.RowsAffected == 0 {
		return ErrStaleWrite
	}
	order.Version++
	return nil
}

func statusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

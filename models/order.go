package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusNotOrdered OrderStatus = "not_ordered"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PlacedOrderStatuses are the statuses an order can have once it has been paid for
var PlacedOrderStatuses = []OrderStatus{
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusProcessing,
	OrderStatusCancelled,
}

// RevenueOrderStatuses are the statuses whose payments count towards revenue
var RevenueOrderStatuses = []OrderStatus{
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusProcessing,
}

// Payment statuses recorded in PaymentResult.Status
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Order represents a customer order and its payment state
type Order struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	OrderItems           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ShippingAddress      ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PriceDetails         PriceDetails    `gorm:"embedded;embeddedPrefix:price_" json:"priceDetails"`
	OrderStatus          OrderStatus     `gorm:"not null;default:'not_ordered';index" json:"orderStatus"`
	PaymentMethod        string          `json:"paymentMethod,omitempty"`
	PaymentResult        PaymentResult   `gorm:"embedded;embeddedPrefix:payment_" json:"paymentResult"`
	AccessCode           string          `json:"-"` // provider checkout session, never sent to clients
	AccessCodeCreatedAt  *time.Time      `json:"-"`
	TransactionReference *string         `gorm:"uniqueIndex" json:"transactionReference,omitempty"` // NULLs never collide
	IsPaid               bool            `gorm:"not null;default:false" json:"isPaid"`
	PaidAt               *time.Time      `json:"paidAt,omitempty"`
	IsDelivered          bool            `gorm:"not null;default:false" json:"isDelivered"`
	DeliveredAt          *time.Time      `json:"deliveredAt"`
	UserID               string          `gorm:"not null;index;size:36" json:"userId"`
	User                 *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Version              int             `gorm:"not null;default:1" json:"-"` // bumped by every workflow write
	CreatedAt            time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a UUID and numbers the line items
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	for i := range o.OrderItems {
		o.OrderItems[i].Position = i
	}
	return nil
}

// HasFreshSession reports whether the stored access code was created less than ttl before now
func (o *Order) HasFreshSession(now time.Time, ttl time.Duration) bool {
	if o.AccessCode == "" || o.AccessCodeCreatedAt == nil {
		return false
	}
	return now.Sub(*o.AccessCodeCreatedAt) < ttl
}

// OrderItem is one immutable line of an order
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	OrderID   string  `gorm:"not null;index;size:36" json:"-"`
	Position  int     `gorm:"not null" json:"-"`
	Name      string  `gorm:"not null" json:"name"`
	Price     float64 `gorm:"not null;check:price >= 0" json:"price"`
	Image     string  `gorm:"not null" json:"image"`
	Quantity  int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	ProductID string  `gorm:"not null;index;size:36" json:"productId"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ShippingAddress is where an order is delivered
type ShippingAddress struct {
	FullName   string `gorm:"not null" json:"fullName"`
	Email      string `gorm:"not null" json:"email"`
	State      string `gorm:"not null" json:"state"`
	Address    string `gorm:"not null" json:"address"`
	Country    string `gorm:"not null" json:"country"`
	City       string `gorm:"not null" json:"city"`
	PostalCode string `gorm:"not null" json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
}

// PriceDetails is the price breakdown of an order
type PriceDetails struct {
	SubTotal      float64 `gorm:"not null" json:"subTotal"`
	TaxPrice      float64 `gorm:"not null;default:0" json:"taxPrice"`
	ShippingPrice float64 `gorm:"not null;default:0" json:"shippingPrice"`
	TotalPrice    float64 `gorm:"not null" json:"totalPrice"`
}

// PaymentResult is the latest payment outcome reported by the provider
type PaymentResult struct {
	Reference       string     `json:"reference,omitempty"`
	Status          string     `json:"status,omitempty"` // pending, success, failed
	GatewayResponse string     `json:"gatewayResponse,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	Channel         string     `json:"channel,omitempty"`
	Email           string     `json:"email,omitempty"`
	AmountPaid      float64    `json:"amountPaid,omitempty"`
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderBeforeCreate(t *testing.T) {
	order := Order{
		OrderItems: []OrderItem{{Name: "a"}, {Name: "b"}, {Name: "c"}},
	}
	assert.NoError(t, order.BeforeCreate(nil))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 1, order.Version)
	for i, item := range order.OrderItems {
		assert.Equal(t, i, item.Position)
	}
}

func TestOrderHasFreshSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ttl := 8 * time.Hour
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name  string
		order Order
		want  bool
	}{
		{"no session", Order{}, false},
		{"code without timestamp", Order{AccessCode: "ac"}, false},
		{"one minute old", Order{AccessCode: "ac", AccessCodeCreatedAt: at(time.Minute)}, true},
		{"just inside window", Order{AccessCode: "ac", AccessCodeCreatedAt: at(ttl - time.Second)}, true},
		{"exactly at window", Order{AccessCode: "ac", AccessCodeCreatedAt: at(ttl)}, false},
		{"past window", Order{AccessCode: "ac", AccessCodeCreatedAt: at(ttl + time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.HasFreshSession(now, ttl))
		})
	}
}

func TestParseAdminOrderStatus(t *testing.T) {
	for _, s := range []string{"processing", "shipped", "delivered", "cancelled"} {
		st, ok := ParseAdminOrderStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, OrderStatus(s), st)
	}

	_, ok := ParseAdminOrderStatus("not_ordered")
	assert.False(t, ok, "not_ordered cannot be set by an admin")
	_, ok = ParseAdminOrderStatus("Shipped")
	assert.False(t, ok, "status matching is exact")
}

func TestIsForwardTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusDelivered, true},
		{OrderStatusNotOrdered, OrderStatusProcessing, true},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusShipped, OrderStatusShipped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, IsForwardTransition(tt.from, tt.to))
		})
	}
}

func TestValidShareStatus(t *testing.T) {
	assert.True(t, ValidShareStatus("sent"))
	assert.True(t, ValidShareStatus("accepted"))
	assert.True(t, ValidShareStatus("rejected"))
	assert.False(t, ValidShareStatus("pending"))
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodShare is a donated-food listing that users can claim portions of
type FoodShare struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	ProductName string   `gorm:"uniqueIndex;not null" json:"productName"`
	Portions    []string `gorm:"type:text;serializer:json;not null" json:"portion"`
	UserID      string   `gorm:"not null;index;size:36" json:"userId"`
}

// TableName specifies the table name for the FoodShare model
func (FoodShare) TableName() string {
	return "food_shares"
}

// BeforeCreate assigns a UUID when the caller did not set one
func (f *FoodShare) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Claim statuses for OrderShare
const (
	ShareStatusSent     = "sent"
	ShareStatusAccepted = "accepted"
	ShareStatusRejected = "rejected"
)

// ValidShareStatus reports whether s is a known claim status
func ValidShareStatus(s string) bool {
	switch s {
	case ShareStatusSent, ShareStatusAccepted, ShareStatusRejected:
		return true
	}
	return false
}

// OrderShare is a user's claim on a portion of a FoodShare listing
type OrderShare struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProductName string    `gorm:"not null;index" json:"productName"`
	Name        string    `gorm:"not null" json:"name"`
	Portion     string    `gorm:"not null" json:"portion"`
	Address     string    `gorm:"not null" json:"address"`
	Phone       string    `gorm:"not null" json:"phone"`
	UserID      string    `gorm:"not null;index;size:36" json:"userId"`
	Status      string    `gorm:"not null;default:'sent'" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the OrderShare model
func (OrderShare) TableName() string {
	return "order_shares"
}

// BeforeCreate assigns a UUID and the initial status
func (o *OrderShare) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = ShareStatusSent
	}
	return nil
}

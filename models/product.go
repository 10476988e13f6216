package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a catalog item
type Product struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"not null;index" json:"name"`
	NormalizedName string    `gorm:"uniqueIndex;not null" json:"-"` // used for duplicate detection
	Description    string    `gorm:"type:text;not null" json:"description"`
	Price          float64   `gorm:"not null" json:"price"`
	Category       Category  `gorm:"not null;index" json:"category"`
	ImageKey       string    `gorm:"not null" json:"imageKey"`    // asset host key
	ImageURL       string    `gorm:"-" json:"imageUrl,omitempty"` // computed field, presigned URL for image
	Stock          int       `gorm:"not null" json:"stock"`
	Discount       *float64  `json:"discount,omitempty"`
	CreatorID      string    `gorm:"not null;index;size:36" json:"creator"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// BeforeSave assigns a UUID on create and keeps NormalizedName in sync with Name
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.NormalizedName = NormalizeProductName(p.Name)
	return nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	punctuation   = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]`)
)

// NormalizeProductName lower-cases, strips punctuation, collapses whitespace and trims
// so that "Jollof - Rice!" and "jollof rice" collide. Letters in any script are kept.
func NormalizeProductName(name string) string {
	n := punctuation.ReplaceAllString(strings.ToLower(name), "")
	n = whitespaceRun.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

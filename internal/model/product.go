package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categories offered by the store.
const (
	CategoryDriver = "driver"
	CategoryWood   = "wood"
	CategoryHybrid = "hybrid"
	CategoryIron   = "iron"
	CategoryWedge  = "wedge"
	CategoryPutter = "putter"
)

// Categories lists every product category in display order.
var Categories = []string{
	CategoryDriver,
	CategoryWood,
	CategoryHybrid,
	CategoryIron,
	CategoryWedge,
	CategoryPutter,
}

// IsValidCategory reports whether category is one of Categories.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Product represents a catalogue product.
type Product struct {
	ID          string          `json:"id" db:"id" yaml:"id"`
	Name        string          `json:"name" db:"name" yaml:"name"`
	Description string          `json:"description" db:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" db:"price" yaml:"price"`
	Category    string          `json:"category" db:"category" yaml:"category"`
	ImageURL    string          `json:"imageUrl,omitempty" db:"image_url" yaml:"image_url"`
	Slug        string          `json:"slug" db:"slug" yaml:"slug"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at" yaml:"-"`
}

// CategoryProducts groups featured products under their category.
type CategoryProducts struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

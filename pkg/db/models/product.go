package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Name is unique so seeding can upsert by name.
type Product struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;type:text;not null;uniqueIndex:products_name_key" json:"name"`
	Description string          `gorm:"column:description;type:text;not null;default:''" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Image       string          `gorm:"column:image;type:text;not null;default:''" json:"image"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

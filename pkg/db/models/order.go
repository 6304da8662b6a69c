package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the immutable header of a completed checkout.
type Order struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    string          `gorm:"column:user_id;type:text;not null;index:orders_user_id_idx" json:"userId"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem captures a submitted line; Price is the caller's price at checkout.
type OrderItem struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   uint64          `gorm:"column:order_id;not null;index:order_items_order_id_idx" json:"orderId"`
	ProductID uint64          `gorm:"column:product_id;not null" json:"productId"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

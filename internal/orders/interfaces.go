package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

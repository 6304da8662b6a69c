package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByUser(ctx context.Context, userID string) ([]models.CartItem, error)
	Upsert(ctx context.Context, userID string, productID uint64, quantity int) (*models.CartItem, error)
	FindByID(ctx context.Context, id uint64) (*models.CartItem, error)
	IncrementQuantity(ctx context.Context, id uint64, delta int) (int64, error)
	Delete(ctx context.Context, id uint64) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

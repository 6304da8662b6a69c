package favorites

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

const addFavoriteSQL = `INSERT INTO favorites (user_id, product_id) VALUES (?, ?) ON CONFLICT (user_id, product_id) DO NOTHING`

// Repository encapsulates favorite persistence.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// Add inserts the favorite, ignoring duplicates, and returns the stored row
// with its product.
func (r *Repository) Add(ctx context.Context, userID string, productID uint64) (*models.Favorite, error) {
	db := r.base.DB(ctx)
	if err := db.Exec(addFavoriteSQL, userID, productID).Error; err != nil {
		return nil, err
	}

	var favorite models.Favorite
	err := db.
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&favorite).
		Error
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

// ListByUser returns the user's favorites with their products.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	favorites := []models.Favorite{}
	err := r.base.DB(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&favorites).
		Error
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

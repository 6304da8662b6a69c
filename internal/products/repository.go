package products

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository reads and seeds the product catalog.
type Repository struct {
	base repo.Base
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// List returns every product, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.base.DB(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&products).
		Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.base.ByID(ctx, &product, id); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertByName inserts the product or refreshes the existing row with the same name.
func (r *Repository) UpsertByName(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "price", "image"}),
		}).
		Create(product).
		Error
}

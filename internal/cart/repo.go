package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Additive merge keyed on the (user_id, product_id) unique index. The WHERE
// skips a merge that would pass the INTEGER range; the comparison is written
// as a subtraction so it cannot overflow itself.
const upsertItemSQL = `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity
WHERE cart_items.quantity <= ? - excluded.quantity`

// ErrQuantityLimit means the merged or adjusted quantity would not fit the column.
var ErrQuantityLimit = errors.New("cart quantity limit exceeded")

// ItemRepository manages persistent cart items.
type ItemRepository struct {
	base repo.Base
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *ItemRepository) WithTx(tx *gorm.DB) Repository {
	return &ItemRepository{base: r.base.Bind(tx)}
}

// ListByUser returns the user's cart lines with their products.
func (r *ItemRepository) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := r.base.DB(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert inserts the line or adds quantity to the existing one in a single
// statement, then reads the merged row back. ErrQuantityLimit is returned
// when the merge would exceed models.MaxQuantity.
func (r *ItemRepository) Upsert(ctx context.Context, userID string, productID uint64, quantity int) (*models.CartItem, error) {
	db := r.base.DB(ctx)
	res := db.Exec(upsertItemSQL, userID, productID, quantity, models.MaxQuantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrQuantityLimit
	}

	var item models.CartItem
	err := db.
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByID loads a cart line with its product.
func (r *ItemRepository) FindByID(ctx context.Context, id uint64) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.ByID(ctx, &item, id, "Product"); err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementQuantity adds delta in place and reports the affected row count.
// A positive delta that would pass models.MaxQuantity affects no row.
func (r *ItemRepository) IncrementQuantity(ctx context.Context, id uint64, delta int) (int64, error) {
	q := r.base.DB(ctx).Model(&models.CartItem{}).Where("id = ?", id)
	if delta > 0 {
		q = q.Where("quantity <= ?", models.MaxQuantity-delta)
	}
	res := q.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	return res.RowsAffected, res.Error
}

// Delete removes a single line.
func (r *ItemRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteByUser empties the user's cart.
func (r *ItemRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.base.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

const (
	quantityMessage      = "quantity must be a positive integer of at most 2147483647"
	quantityLimitMessage = "quantity would exceed 2147483647"
)

// Service exposes cart operations.
type Service interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Add(ctx context.Context, input AddInput) (*models.CartItem, error)
	Remove(ctx context.Context, id uint64) (*models.CartItem, error)
	Adjust(ctx context.Context, id uint64, delta int) (*AdjustResult, error)
}

// AddInput is the validated payload for adding a product to a cart.
// A nil or zero Quantity means one unit.
type AddInput struct {
	UserID    string
	ProductID uint64
	Quantity  *int
}

// AdjustResult carries either the updated line or the fact that it was removed.
type AdjustResult struct {
	Item    *models.CartItem
	Deleted bool
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo    Repository
	Users   *users.Repository
	Tx      txRunner
	Metrics *metrics.ShopMetrics
}

type service struct {
	repo    Repository
	users   *users.Repository
	tx      txRunner
	metrics *metrics.ShopMetrics
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "cart.list")
	}
	return items, nil
}

// Add creates the placeholder user if needed and merges quantity into the
// user's line for the product.
func (s *service) Add(ctx context.Context, input AddInput) (*models.CartItem, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	if input.ProductID == 0 || input.ProductID > models.MaxID {
		return nil, pkgerrors.Validation("productId", "productId must be a positive id")
	}
	quantity := 1
	if input.Quantity != nil && *input.Quantity != 0 {
		quantity = *input.Quantity
	}
	if quantity < 0 || quantity > models.MaxQuantity {
		return nil, pkgerrors.Validation("quantity", quantityMessage)
	}

	var item *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).EnsurePlaceholder(ctx, userID); err != nil {
			return err
		}
		merged, err := s.repo.WithTx(tx).Upsert(ctx, userID, input.ProductID, quantity)
		switch {
		case db.IsForeignKeyViolation(err, ""):
			return pkgerrors.NotFound("product")
		case errors.Is(err, ErrQuantityLimit), db.IsOutOfRange(err):
			return pkgerrors.Validation("quantity", quantityLimitMessage)
		case err != nil:
			return err
		}
		item = merged
		return nil
	})
	if err != nil {
		return nil, persistence(err, "cart.add")
	}
	s.metrics.IncCartWrite("add")
	return item, nil
}

// Remove deletes a line and returns it as it was.
func (s *service) Remove(ctx context.Context, id uint64) (*models.CartItem, error) {
	if id == 0 || id > models.MaxID {
		return nil, pkgerrors.Validation("id", "invalid cart item id")
	}

	var removed *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("cart item")
			}
			return err
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return err
		}
		removed = item
		return nil
	})
	if err != nil {
		return nil, persistence(err, "cart.remove")
	}
	s.metrics.IncCartWrite("remove")
	return removed, nil
}

// Adjust applies delta atomically; a resulting quantity of zero or less
// deletes the line.
func (s *service) Adjust(ctx context.Context, id uint64, delta int) (*AdjustResult, error) {
	if id == 0 || id > models.MaxID {
		return nil, pkgerrors.Validation("id", "invalid cart item id")
	}
	if delta == 0 || delta > models.MaxQuantity || delta < -models.MaxQuantity {
		return nil, pkgerrors.Validation("delta", "delta must be a non-zero integer within the quantity range")
	}

	result := &AdjustResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.IncrementQuantity(ctx, id, delta)
		if err != nil {
			if db.IsOutOfRange(err) {
				return pkgerrors.Validation("delta", quantityLimitMessage)
			}
			return err
		}
		if affected == 0 {
			// either the line is gone or the guard refused the increment
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.NotFound("cart item")
				}
				return err
			}
			return pkgerrors.Validation("delta", quantityLimitMessage)
		}

		item, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if item.Quantity <= 0 {
			if _, err := repo.Delete(ctx, id); err != nil {
				return err
			}
			result.Deleted = true
			return nil
		}
		result.Item = item
		return nil
	})
	if err != nil {
		return nil, persistence(err, "cart.adjust")
	}
	s.metrics.IncCartWrite("adjust")
	return result, nil
}

// persistence keeps typed errors and tags everything else with op.
func persistence(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Persistence(err, op)
}

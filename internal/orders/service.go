package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

// Service exposes checkout and order history.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	UserID string
	Items  []ItemInput
}

// ItemInput is one submitted line. Price is the amount the client saw when
// the product went into the cart and is stored as given.
type ItemInput struct {
	ProductID uint64
	Quantity  int
	Price     decimal.Decimal
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo    Repository
	Cart    cart.Repository
	Tx      txRunner
	Metrics *metrics.ShopMetrics
}

type service struct {
	repo    Repository
	cart    cart.Repository
	tx      txRunner
	metrics *metrics.ShopMetrics
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		cart:    params.Cart,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

// Total sums price × quantity over the submitted lines.
func Total(items []ItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// PlaceOrder writes the order header, one line per submitted item and clears
// the user's cart as a single unit. Any failure leaves no trace.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.Validation("items", "items must be a non-empty list")
	}
	for i, item := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case item.ProductID == 0 || item.ProductID > models.MaxID:
			return nil, pkgerrors.Validation(field+".productId", "productId must be a positive id")
		case item.Quantity <= 0 || item.Quantity > models.MaxQuantity:
			return nil, pkgerrors.Validation(field+".quantity", "quantity must be a positive integer of at most 2147483647")
		case item.Price.IsNegative():
			return nil, pkgerrors.Validation(field+".price", "price must not be negative")
		case !models.FitsMoney(item.Price, models.MaxPrice):
			return nil, pkgerrors.Validation(field+".price", "price must have at most two decimals and be at most 99999999.99")
		}
	}

	total := Total(input.Items)
	if !models.FitsMoney(total, models.MaxTotal) {
		return nil, pkgerrors.Validation("items", "order total must be at most 9999999999.99")
	}

	order := &models.Order{UserID: userID, Total: total}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, item := range input.Items {
			line := &models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
			if _, err := repo.CreateOrderItem(ctx, line); err != nil {
				if db.IsForeignKeyViolation(err, "") {
					return pkgerrors.NotFound("product")
				}
				return err
			}
		}
		if _, err := s.cart.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if db.IsOutOfRange(err) {
			return nil, pkgerrors.Validation("items", "order values exceed the stored range")
		}
		return nil, pkgerrors.Persistence(err, "orders.place")
	}

	s.metrics.ObserveOrder(order.Total)
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "orders.list")
	}
	return orders, nil
}

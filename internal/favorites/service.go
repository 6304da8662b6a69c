package favorites

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo  *Repository
	Users *users.Repository
	Tx    txRunner
}

// Service exposes business rules for favorites.
type Service interface {
	List(ctx context.Context, userID string) ([]models.Favorite, error)
	Add(ctx context.Context, userID string, productID uint64) (*models.Favorite, error)
}

type service struct {
	repo  *Repository
	users *users.Repository
	tx    txRunner
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, users: params.Users, tx: params.Tx}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	favorites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "favorites.list")
	}
	return favorites, nil
}

// Add records the favorite once; repeating it returns the existing row.
func (s *service) Add(ctx context.Context, userID string, productID uint64) (*models.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.Validation("userId", "userId is required")
	}
	if productID == 0 || productID > models.MaxID {
		return nil, pkgerrors.Validation("productId", "productId must be a positive id")
	}

	var favorite *models.Favorite
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).EnsurePlaceholder(ctx, userID); err != nil {
			return err
		}
		added, err := s.repo.WithTx(tx).Add(ctx, userID, productID)
		if err != nil {
			if db.IsForeignKeyViolation(err, "") {
				return pkgerrors.NotFound("product")
			}
			return err
		}
		favorite = added
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Persistence(err, "favorites.add")
	}
	return favorite, nil
}

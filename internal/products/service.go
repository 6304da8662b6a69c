package products

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

// Service exposes the read side of the catalog.
type Service interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
}

type catalogReader interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uint64) (*models.Product, error)
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Repo    catalogReader
	Cache   *Cache
	Metrics *metrics.ShopMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    catalogReader
	cache   *Cache
	metrics *metrics.ShopMetrics
	logg    *logger.Logger
}

// NewService builds a product service. Cache and Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// ListProducts serves the catalog from cache when possible. Cache failures
// are logged and never fail the request.
func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetList(ctx)
		switch {
		case err != nil:
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "products.cache_read_failed")
		case ok:
			s.metrics.CacheHit(cacheName)
			return cached, nil
		default:
			s.metrics.CacheMiss(cacheName)
		}
	}

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "products.list")
	}

	if s.cache != nil {
		if err := s.cache.SetList(ctx, list); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "products.cache_write_failed")
		}
	}
	return list, nil
}

func (s *service) GetProduct(ctx context.Context, id uint64) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Persistence(err, "products.get")
	}
	return product, nil
}

package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DefaultCatalog is the starter catalog loaded by cmd/seed.
func DefaultCatalog() []models.Product {
	return []models.Product{
		{Name: "Oversize T-Shirt", Description: "Pamuklu", Price: decimal.RequireFromString("249.90"), Image: "/tshirt.jpg"},
		{Name: "Yüksek Bel Jean", Description: "Kot pantolon", Price: decimal.RequireFromString("499.00"), Image: "/tshirt.jpg"},
		{Name: "Sneaker Ayakkabı", Description: "Konforlu", Price: decimal.RequireFromString("799.00"), Image: "/tshirt.jpg"},
		{Name: "Deri Omuz Çantası", Description: "Şık çanta", Price: decimal.RequireFromString("699.00"), Image: "/tshirt.jpg"},
	}
}

// Seeder upserts a catalog by product name.
type Seeder struct {
	tx    txRunner
	repo  *Repository
	cache *Cache
}

// NewSeeder builds a seeder; cache may be nil.
func NewSeeder(tx txRunner, repo *Repository, cache *Cache) *Seeder {
	return &Seeder{tx: tx, repo: repo, cache: cache}
}

// Seed writes every product in one transaction and drops the cached list.
// Running it again updates rows in place.
func (s *Seeder) Seed(ctx context.Context, catalog []models.Product) (int, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range catalog {
			product := catalog[i]
			if err := repo.UpsertByName(ctx, &product); err != nil {
				return fmt.Errorf("upsert product %q: %w", product.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return len(catalog), fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return len(catalog), nil
}

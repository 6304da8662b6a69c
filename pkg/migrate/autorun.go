package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date at boot. SQLite is always
// migrated from the gorm models. Postgres runs the goose migrations only
// in dev with SHOPFRONT_AUTO_MIGRATE set; elsewhere cmd/migrate owns it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	ctx = logg.WithField(ctx, "dialect", client.Dialect())

	if client.Dialect() == "sqlite" {
		if err := client.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		logg.Info(ctx, "schema ready")
		return nil
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		logg.Debug(ctx, "schema migration left to cmd/migrate")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, client.Dialect(), "up", logg); err != nil {
		return err
	}
	logg.Info(ctx, "schema ready")
	return nil
}

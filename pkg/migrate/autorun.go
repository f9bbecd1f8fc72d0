package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/angelmondragon/movies-backend/pkg/db"
	"github.com/angelmondragon/movies-backend/pkg/db/models"
	"github.com/angelmondragon/movies-backend/pkg/logger"
)

// MaybeRunDev prepares the schema automatically when the app is running in dev mode and
// the feature flag is enabled. Postgres runs the goose migrations; SQLite uses GORM's
// AutoMigrate since the SQL files target Postgres types.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	return Schema(ctx, logg, client, DefaultDir)
}

// Schema brings the movies schema up to date for the client's driver.
func Schema(ctx context.Context, logg *logger.Logger, client *db.Client, dir string) error {
	ctx = logg.WithFields(ctx, map[string]any{"driver": client.Driver(), "dir": dir})

	if client.Driver() == config.DriverSQLite {
		logg.Info(ctx, "running GORM auto-migrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.Movie{}); err != nil {
			return fmt.Errorf("auto-migrate movies: %w", err)
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, client.Driver(), dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "Goose migrations completed")
	return nil
}

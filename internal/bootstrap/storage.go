// Package bootstrap opens the storage backends shared by the api and cron-worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/angelmondragon/movies-backend/internal/movies"
	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/angelmondragon/movies-backend/pkg/db"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/angelmondragon/movies-backend/pkg/migrate"
	"github.com/angelmondragon/movies-backend/pkg/mongodb"
)

// Pinger is the readiness surface of an opened backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MovieStore is the movie repository for the configured driver plus its connection.
type MovieStore struct {
	Repository movies.Repository
	Pinger     Pinger
	close      func(ctx context.Context) error
}

// Close releases the underlying connection.
func (s *MovieStore) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenMovieStore connects to Mongo or a SQL database depending on cfg.DB.Driver.
// SQL backends run the dev auto-migration when it is enabled.
func OpenMovieStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*MovieStore, error) {
	ctx = logg.WithField(ctx, "driver", cfg.DB.Driver)

	switch {
	case cfg.DB.IsMongo():
		client, err := mongodb.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		repo := movies.NewMongoRepository(client.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Close(context.Background())
			return nil, fmt.Errorf("ensure movie indexes: %w", err)
		}
		return &MovieStore{Repository: repo, Pinger: client, close: client.Close}, nil

	case cfg.DB.IsSQL():
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("dev migrations: %w", err)
		}
		return &MovieStore{
			Repository: movies.NewGormRepository(client.DB()),
			Pinger:     client,
			close:      func(context.Context) error { return client.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
}

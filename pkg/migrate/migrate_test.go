package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/angelmondragon/movies-backend/pkg/db"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		Driver:       config.DriverSQLite,
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestShippedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))

	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_movies_table.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS movies",
		"name TEXT NOT NULL",
		"created_at TIMESTAMPTZ NOT NULL",
		"DROP TABLE IF EXISTS movies",
	} {
		require.Contains(t, content, sub)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Movie Genre!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_movie_genre.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_movies.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_no_down.sql"), []byte("-- +goose Up\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	d, err = Dialect(config.DriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	_, err = Dialect(config.DriverMongo)
	require.Error(t, err)
}

func TestRunAppliesSQLiteMigrations(t *testing.T) {
	client := openSQLite(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)

	dir := t.TempDir()
	migration := `-- +goose Up
CREATE TABLE genres (id INTEGER PRIMARY KEY, name TEXT NOT NULL);

-- +goose Down
DROP TABLE genres;
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_create_genres.sql"), []byte(migration), 0o644))

	ctx := context.Background()
	require.NoError(t, Run(ctx, sqlDB, config.DriverSQLite, dir, "up"))

	_, err = sqlDB.Exec(`INSERT INTO genres (name) VALUES ('noir')`)
	require.NoError(t, err)

	require.NoError(t, MigrateToVersion(ctx, sqlDB, config.DriverSQLite, dir, "0"))
	_, err = sqlDB.Exec(`INSERT INTO genres (name) VALUES ('noir')`)
	require.Error(t, err)

	require.Error(t, Run(ctx, nil, config.DriverSQLite, dir, "up"))
	require.Error(t, MigrateToVersion(ctx, sqlDB, config.DriverSQLite, dir, "latest"))
}

func TestMaybeRunDevSQLite(t *testing.T) {
	client := openSQLite(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), client))
	require.True(t, client.DB().Migrator().HasTable("movies"))
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	client := openSQLite(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), client))
	require.False(t, client.DB().Migrator().HasTable("movies"))
}

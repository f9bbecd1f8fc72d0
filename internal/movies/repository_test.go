package movies

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestGormRepo(t *testing.T) *GormRepository {
	t.Helper()
	repo := NewGormRepository(newTestDB(t))
	repo.now = steppingClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return repo
}

func TestGormRepositoryCreateAndFind(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	movie := &models.Movie{Name: "Heat", Year: intPtr(1995), Rating: floatPtr(8.3)}
	require.NoError(t, repo.Create(ctx, movie))
	require.NotEmpty(t, movie.ID)
	require.False(t, movie.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, movie.ID)
	require.NoError(t, err)
	require.Equal(t, "Heat", found.Name)
	require.Equal(t, 1995, *found.Year)
	require.Equal(t, 8.3, *found.Rating)
	require.Nil(t, found.Description)
	require.Nil(t, found.Image)

	_, err = repo.FindByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByID(ctx, "65f1c0ffee0000000000beef")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepositoryListOrder(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &models.Movie{Name: name}))
	}

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "first", rows[0].Name)
	require.Equal(t, "second", rows[1].Name)
	require.Equal(t, "third", rows[2].Name)
}

func TestGormRepositorySaveOverwritesOptionalFields(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	movie := &models.Movie{Name: "Heat", Rating: floatPtr(8.3), Description: stringPtr("crime")}
	require.NoError(t, repo.Create(ctx, movie))

	movie.Rating = floatPtr(0)
	movie.Description = nil
	require.NoError(t, repo.Save(ctx, movie))

	found, err := repo.FindByID(ctx, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Rating)
	require.Equal(t, 0.0, *found.Rating)
	require.Nil(t, found.Description)
	require.True(t, found.UpdatedAt.After(found.CreatedAt) || found.UpdatedAt.Equal(found.CreatedAt))

	err = repo.Save(ctx, &models.Movie{ID: uuid.NewString(), Name: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepositoryDelete(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	movie := &models.Movie{Name: "Heat"}
	require.NoError(t, repo.Create(ctx, movie))

	require.NoError(t, repo.Delete(ctx, movie.ID))
	_, err := repo.FindByID(ctx, movie.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, movie.ID), ErrNotFound)
}

func TestGormRepositoryListImagePaths(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "a", Image: stringPtr("uploads/1-a.png")}))
	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "b"}))
	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "c", Image: stringPtr("")}))

	paths, err := repo.ListImagePaths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"uploads/1-a.png"}, paths)
}

func TestGormRepositoryCountImageReferences(t *testing.T) {
	repo := newTestGormRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "a", Image: stringPtr("uploads/1-a.png")}))
	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "b", Image: stringPtr("uploads/1-a.png")}))
	require.NoError(t, repo.Create(ctx, &models.Movie{Name: "c", Image: stringPtr("uploads/2-c.png")}))

	count, err := repo.CountImageReferences(ctx, "uploads/1-a.png")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = repo.CountImageReferences(ctx, "uploads/9-missing.png")
	require.NoError(t, err)
	require.Zero(t, count)
}

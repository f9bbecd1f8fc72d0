package movies

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func stringPtr(v string) *string   { return &v }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&models.Movie{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type stubRepo struct {
	movies    map[string]models.Movie
	order     []string
	err       error
	countErr  error
	saveCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{movies: map[string]models.Movie{}}
}

func (r *stubRepo) Create(_ context.Context, movie *models.Movie) error {
	if r.err != nil {
		return r.err
	}
	movie.CreatedAt = time.Now().UTC()
	movie.UpdatedAt = movie.CreatedAt
	r.movies[movie.ID] = *movie
	r.order = append(r.order, movie.ID)
	return nil
}

func (r *stubRepo) List(context.Context) ([]models.Movie, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []models.Movie{}
	for _, id := range r.order {
		if m, ok := r.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*models.Movie, error) {
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.movies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *stubRepo) Save(_ context.Context, movie *models.Movie) error {
	r.saveCalls++
	if _, ok := r.movies[movie.ID]; !ok {
		return ErrNotFound
	}
	r.movies[movie.ID] = *movie
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.movies[id]; !ok {
		return ErrNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *stubRepo) ListImagePaths(context.Context) ([]string, error) {
	paths := []string{}
	for _, m := range r.movies {
		if m.Image != nil {
			paths = append(paths, *m.Image)
		}
	}
	return paths, nil
}

func (r *stubRepo) CountImageReferences(_ context.Context, image string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	var count int64
	for _, m := range r.movies {
		if m.Image != nil && *m.Image == image {
			count++
		}
	}
	return count, nil
}

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, publicPath string) error {
	r.removed = append(r.removed, publicPath)
	return r.err
}

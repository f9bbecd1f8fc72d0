package movies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists movie records.
type Repository interface {
	Create(ctx context.Context, movie *models.Movie) error
	List(ctx context.Context) ([]models.Movie, error)
	FindByID(ctx context.Context, id string) (*models.Movie, error)
	Save(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id string) error
	ListImagePaths(ctx context.Context) ([]string, error)
	CountImageReferences(ctx context.Context, image string) (int64, error)
}

var updatableColumns = []string{"name", "year", "rating", "description", "image", "updated_at"}

// GormRepository stores movies in a SQL table through GORM.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository builds a repository tied to the provided GORM DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func (r *GormRepository) Create(ctx context.Context, movie *models.Movie) error {
	if movie.ID == "" {
		movie.ID = NewID()
	}
	now := r.now()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

// List returns every movie in insertion order.
func (r *GormRepository) List(ctx context.Context) ([]models.Movie, error) {
	rows := []models.Movie{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return rows, nil
}

// FindByID looks up a movie. Ids that are not UUIDs cannot exist in the table.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	var movie models.Movie
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	return &movie, nil
}

// Save overwrites every mutable column, writing NULL for unset optional fields.
func (r *GormRepository) Save(ctx context.Context, movie *models.Movie) error {
	if !isUUID(movie.ID) {
		return ErrNotFound
	}
	movie.UpdatedAt = r.now()
	res := r.db.WithContext(ctx).
		Model(&models.Movie{ID: movie.ID}).
		Select(updatableColumns).
		Updates(movie)
	if res.Error != nil {
		return fmt.Errorf("save movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Movie{})
	if res.Error != nil {
		return fmt.Errorf("delete movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListImagePaths returns the image paths referenced by any movie.
func (r *GormRepository) ListImagePaths(ctx context.Context) ([]string, error) {
	paths := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.Movie{}).
		Where("image IS NOT NULL AND image <> ''").
		Pluck("image", &paths).Error
	if err != nil {
		return nil, fmt.Errorf("list image paths: %w", err)
	}
	return paths, nil
}

func (r *GormRepository) CountImageReferences(ctx context.Context, image string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Movie{}).
		Where("image = ?", image).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count image references: %w", err)
	}
	return count, nil
}

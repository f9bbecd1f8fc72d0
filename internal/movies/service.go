package movies

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
	"github.com/angelmondragon/movies-backend/pkg/logger"
)

// Service exposes movie management operations.
type Service interface {
	Create(ctx context.Context, input CreateMovieInput) (*MovieDTO, error)
	List(ctx context.Context) ([]MovieDTO, error)
	Get(ctx context.Context, id string) (*MovieDTO, error)
	Update(ctx context.Context, id string, input UpdateMovieInput) (*MovieDTO, error)
	Delete(ctx context.Context, id string) error
}

type imageRemover interface {
	Remove(ctx context.Context, publicPath string) error
}

type service struct {
	repo   Repository
	images imageRemover
	logg   *logger.Logger
}

// NewService constructs a movie service instance.
func NewService(repo Repository, images imageRemover, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movie repository required")
	}
	if images == nil {
		return nil, fmt.Errorf("image remover required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, images: images, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateMovieInput) (*MovieDTO, error) {
	if err := ValidateCreate(input); err != nil {
		return nil, err
	}

	movie := &models.Movie{
		ID:          NewID(),
		Name:        input.Name,
		Year:        input.Year,
		Rating:      input.Rating,
		Description: input.Description,
		Image:       input.Image,
	}
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create movie")
	}
	return NewMovieDTO(movie), nil
}

func (s *service) List(ctx context.Context) ([]MovieDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list movies")
	}
	out := make([]MovieDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewMovieDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (*MovieDTO, error) {
	movie, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewMovieDTO(movie), nil
}

// Update applies every supplied field, zero values included, then saves the record.
func (s *service) Update(ctx context.Context, id string, input UpdateMovieInput) (*MovieDTO, error) {
	if err := ValidateUpdate(input); err != nil {
		return nil, err
	}

	movie, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdateToMovie(movie, input)

	if err := s.repo.Save(ctx, movie); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save movie")
	}
	return NewMovieDTO(movie), nil
}

// Delete removes the record and then its image file. The file stays when
// another record still references the same path, and a failed removal is
// logged and left for the orphan sweeper.
func (s *service) Delete(ctx context.Context, id string) error {
	movie, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete movie")
	}

	if movie.Image == nil || *movie.Image == "" {
		return nil
	}
	logCtx := s.logg.WithFields(s.logg.WithMovieID(ctx, id), map[string]any{"image": *movie.Image})

	refs, err := s.repo.CountImageReferences(ctx, *movie.Image)
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "movie image reference check failed")
		return nil
	}
	if refs > 0 {
		s.logg.Info(s.logg.WithField(logCtx, "references", refs), "movie image still referenced")
		return nil
	}

	if err := s.images.Remove(ctx, *movie.Image); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "movie image removal failed")
	}
	return nil
}

func (s *service) find(ctx context.Context, id string) (*models.Movie, error) {
	movie, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find movie")
	}
	return movie, nil
}

func notFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "movie not found")
}

func applyUpdateToMovie(movie *models.Movie, input UpdateMovieInput) {
	if input.Name != nil {
		movie.Name = *input.Name
	}
	if input.Year != nil {
		movie.Year = input.Year
	}
	if input.Rating != nil {
		movie.Rating = input.Rating
	}
	if input.Description != nil {
		movie.Description = input.Description
	}
	if input.Image != nil {
		movie.Image = input.Image
	}
}

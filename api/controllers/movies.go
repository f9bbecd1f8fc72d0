package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/movies-backend/api/middleware"
	"github.com/angelmondragon/movies-backend/api/responses"
	"github.com/angelmondragon/movies-backend/api/validators"
	"github.com/angelmondragon/movies-backend/internal/movies"
	"github.com/angelmondragon/movies-backend/internal/uploads"
	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
	"github.com/angelmondragon/movies-backend/pkg/logger"
)

// UploadRemover discards stored uploads when a request fails after storing one.
type UploadRemover interface {
	Remove(ctx context.Context, publicPath string) error
}

// CreateMovie handles POST /api/movies.
func CreateMovie(svc movies.Service, files UploadRemover, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stored := middleware.UploadedFileFromContext(ctx)

		fail := func(err error) {
			discardUpload(ctx, files, logg, stored)
			responses.WriteError(ctx, logg, w, err)
		}

		fields, err := validators.ReadFields(r)
		if err != nil {
			fail(err)
			return
		}

		year, yearErr := fields.Int("year")
		rating, ratingErr := fields.Float("rating")
		if err := validators.Errors(yearErr, ratingErr); err != nil {
			fail(err)
			return
		}

		input := movies.CreateMovieInput{
			Year:        year,
			Rating:      rating,
			Description: fields.String("description"),
			Image:       fields.String("image"),
		}
		if name := fields.String("name"); name != nil {
			input.Name = *name
		}
		if stored != nil {
			input.Image = &stored.Path
		}

		movie, err := svc.Create(ctx, input)
		if err != nil {
			fail(err)
			return
		}

		logg.Info(logg.WithMovieID(ctx, movie.ID), "movie.created")
		responses.WriteSuccessStatus(w, http.StatusCreated, movie)
	}
}

// ListMovies handles GET /api/movies.
func ListMovies(svc movies.Service, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetMovie handles GET /api/movies/{id}.
func GetMovie(svc movies.Service, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := movieIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movie, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movie)
	}
}

// UpdateMovie handles PUT /api/movies/{id}. Only supplied fields change; a new
// upload replaces the image path.
func UpdateMovie(svc movies.Service, files UploadRemover, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stored := middleware.UploadedFileFromContext(ctx)

		fail := func(err error) {
			discardUpload(ctx, files, logg, stored)
			responses.WriteError(ctx, logg, w, err)
		}

		id, err := movieIDParam(r)
		if err != nil {
			fail(err)
			return
		}
		ctx = logg.WithMovieID(ctx, id)

		fields, err := validators.ReadFields(r)
		if err != nil {
			fail(err)
			return
		}

		year, yearErr := fields.Int("year")
		rating, ratingErr := fields.Float("rating")
		if err := validators.Errors(yearErr, ratingErr); err != nil {
			fail(err)
			return
		}

		input := movies.UpdateMovieInput{
			Name:        fields.String("name"),
			Year:        year,
			Rating:      rating,
			Description: fields.String("description"),
		}
		if stored != nil {
			input.Image = &stored.Path
		}

		movie, err := svc.Update(ctx, id, input)
		if err != nil {
			fail(err)
			return
		}

		logg.Info(ctx, "movie.updated")
		responses.WriteSuccess(w, movie)
	}
}

// DeleteMovie handles DELETE /api/movies/{id}.
func DeleteMovie(svc movies.Service, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := movieIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithMovieID(ctx, id), "movie.deleted")
		responses.WriteNoContent(w)
	}
}

func movieIDParam(r *http.Request) (string, error) {
	id, err := movies.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movie id").
			WithDetails(map[string]string{"id": "must be a valid id"})
	}
	return id, nil
}

// discardUpload removes a file stored earlier in the request when the request
// ends in an error. Failures are logged and otherwise ignored.
func discardUpload(ctx context.Context, files UploadRemover, logg *logger.Logger, stored *uploads.StoredFile) {
	if stored == nil || files == nil {
		return
	}
	if err := files.Remove(ctx, stored.Path); err != nil {
		logg.Warn(logg.WithField(ctx, "image", stored.Path), "upload.discard_failed")
	}
}

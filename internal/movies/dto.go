package movies

import (
	"time"

	"github.com/angelmondragon/movies-backend/pkg/db/models"
)

// MovieDTO is the wire representation of a movie record.
type MovieDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Year        *int      `json:"year,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Description *string   `json:"description,omitempty"`
	Image       *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewMovieDTO(movie *models.Movie) *MovieDTO {
	if movie == nil {
		return nil
	}
	return &MovieDTO{
		ID:          movie.ID,
		Name:        movie.Name,
		Year:        movie.Year,
		Rating:      movie.Rating,
		Description: movie.Description,
		Image:       movie.Image,
		CreatedAt:   movie.CreatedAt,
		UpdatedAt:   movie.UpdatedAt,
	}
}

// CreateMovieInput holds the payload to create a movie.
type CreateMovieInput struct {
	Name        string   `json:"name" validate:"required,notblank"`
	Year        *int     `json:"year"`
	Rating      *float64 `json:"rating"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

// UpdateMovieInput holds optional mutation values. A nil field is left unchanged;
// a non-nil field is applied as given, zero values included.
type UpdateMovieInput struct {
	Name        *string  `json:"name"`
	Year        *int     `json:"year"`
	Rating      *float64 `json:"rating"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

// IsEmpty reports whether no field was supplied.
func (in UpdateMovieInput) IsEmpty() bool {
	return in.Name == nil && in.Year == nil && in.Rating == nil && in.Description == nil && in.Image == nil
}

package services

import (
	"context"

	"github.com/desertthunder/cinematch/internal/models"
)

// Catalog searches a hosted movie database.
type Catalog interface {
	// Search returns every result for query. An empty slice with a nil error means no matches.
	Search(ctx context.Context, query string) ([]models.Movie, error)

	// PosterURL turns a result's poster path into a fetchable image URL, or "" when path is empty.
	PosterURL(path string) string

	// Name returns the name of the catalog (e.g., "TMDB")
	Name() string
}

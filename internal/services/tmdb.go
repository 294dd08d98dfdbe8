package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

const (
	DefaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	DefaultTMDBImageBaseURL = "https://image.tmdb.org/t/p/w200"
)

// TMDBService implements [Catalog] with The Movie Database v3 search endpoint and a bearer read token.
type TMDBService struct {
	api          *APIService
	imageBaseURL string
}

// TMDBSearchResponse is the subset of GET /search/movie the client reads.
//
// Results is a pointer so a body without a results array is told apart from an empty one.
type TMDBSearchResponse struct {
	Page         int           `json:"page"`
	TotalResults int           `json:"total_results"`
	Results      *[]TMDBResult `json:"results"`
}

type TMDBResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
}

func (r TMDBResult) movie() models.Movie {
	return models.Movie{
		ID:          r.ID,
		Title:       r.Title,
		PosterPath:  r.PosterPath,
		ReleaseDate: r.ReleaseDate,
		Overview:    r.Overview,
	}
}

// NewTMDBService builds a client from config. A nil client gets a 10 second timeout.
func NewTMDBService(cfg shared.TMDBConfig, client *http.Client) *TMDBService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultTMDBBaseURL
	}
	imageBaseURL := cfg.ImageBaseURL
	if imageBaseURL == "" {
		imageBaseURL = DefaultTMDBImageBaseURL
	}

	api := NewAPIService(strings.TrimSuffix(baseURL, "/"), client)
	if cfg.AccessToken != "" {
		api.SetHeader("Authorization", "Bearer "+cfg.AccessToken)
	}
	api.SetRateLimit(cfg.RateLimit, cfg.Burst)

	return &TMDBService{api: api, imageBaseURL: strings.TrimSuffix(imageBaseURL, "/")}
}

func (s *TMDBService) Name() string { return "TMDB" }

// Search calls GET /search/movie?query=.
//
// Non-2xx statuses wrap [shared.ErrAPIRequest]; an undecodable body, or one with no results array,
// is returned as a decode error.
func (s *TMDBService) Search(ctx context.Context, query string) ([]models.Movie, error) {
	resp, err := s.api.Get(ctx, "/search/movie", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, fmt.Errorf("%w: TMDB returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var res TMDBSearchResponse
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	if res.Results == nil {
		return nil, fmt.Errorf("failed to decode response: no results array")
	}

	movies := make([]models.Movie, 0, len(*res.Results))
	for _, r := range *res.Results {
		movies = append(movies, r.movie())
	}
	return movies, nil
}

// PosterURL joins the image base and path. Broken paths are not detected.
func (s *TMDBService) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return s.imageBaseURL + "/" + strings.TrimPrefix(path, "/")
}

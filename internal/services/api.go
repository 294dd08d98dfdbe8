// Raw JSON HTTP client shared by the catalog services
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/desertthunder/cinematch/internal/shared"
)

// APIService performs JSON requests against a single base URL with default headers and an optional rate limit.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service instance for baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	headers := make(http.Header)
	headers.Set("Accept", "application/json")

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
		headers:    headers,
	}
}

// SetHeader adds a header sent with every request.
func (a *APIService) SetHeader(key, value string) {
	a.headers.Set(key, value)
}

// SetRateLimit caps outgoing requests at perSecond with the given burst. Non-positive rates disable limiting.
func (a *APIService) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		a.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request to path with the given query parameters and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(ctx, req)
}

func (a *APIService) do(ctx context.Context, req *http.Request) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", shared.ErrAPIRequest, err)
		}
	}

	for key, values := range a.headers {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

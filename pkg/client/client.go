// Package client provides the product API HTTP client with error
// classification and retry.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for product API operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_requests_total",
		Help: "Total product API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Product API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_errors_total",
		Help: "Total product API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Endpoint labels used in metrics and logs.
const (
	endpointCategory        = "category"
	endpointDetails         = "details"
	endpointRecommendations = "recommendations"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Client talks to the product API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the product API, e.g. "https://shop.example.com"
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      "beauty-storefront/1.0",
		Timeout:        10 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// New creates a new product API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  log.With().Str("component", logging.ComponentClient).Logger(),
	}, nil
}

// categoryResponse is the body of GET /api/{category}.
type categoryResponse struct {
	Products *[]catalog.Product `json:"products"`
}

// detailsResponse is the body of GET /api/products/details/{id}.
type detailsResponse struct {
	Product *catalog.Product `json:"product"`
}

// recommendationsResponse is the body of GET /api/products/recommendations/{id}.
type recommendationsResponse struct {
	Recommendations []catalog.Product `json:"recommendations"`
}

// Category fetches the product list of a category.
// A non-200 status yields an *APIError; a body without "products" yields
// ErrInvalidResponse.
func (c *Client) Category(ctx context.Context, category string) ([]catalog.Product, error) {
	path := "/api/" + url.PathEscape(strings.TrimSpace(category))

	var body categoryResponse
	if err := c.getJSON(ctx, endpointCategory, path, &body); err != nil {
		return nil, err
	}

	if body.Products == nil {
		return nil, fmt.Errorf("%w: missing products for category %q", ErrInvalidResponse, category)
	}

	c.logger.Info().
		Str("category", category).
		Int("products", len(*body.Products)).
		Msg("Fetched category")

	return *body.Products, nil
}

// ProductDetails fetches a single product.
// Returns ErrNotFound for unknown ids.
func (c *Client) ProductDetails(ctx context.Context, productID string) (catalog.Product, error) {
	path := "/api/products/details/" + url.PathEscape(productID)

	var body detailsResponse
	if err := c.getJSON(ctx, endpointDetails, path, &body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return catalog.Product{}, fmt.Errorf("%w: %s", ErrNotFound, productID)
		}
		return catalog.Product{}, err
	}

	if body.Product == nil {
		return catalog.Product{}, fmt.Errorf("%w: %s", ErrNotFound, productID)
	}

	return *body.Product, nil
}

// Recommendations fetches products related to productID. A body without
// recommendations yields an empty list.
func (c *Client) Recommendations(ctx context.Context, productID string) ([]catalog.Product, error) {
	path := "/api/products/recommendations/" + url.PathEscape(productID)

	var body recommendationsResponse
	if err := c.getJSON(ctx, endpointRecommendations, path, &body); err != nil {
		return nil, err
	}

	if body.Recommendations == nil {
		return []catalog.Product{}, nil
	}
	return body.Recommendations, nil
}

// getJSON performs a GET with retry and decodes a 200 body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	retryCfg := RetryConfig{
		MaxAttempts:       c.config.MaxRetries + 1,
		InitialBackoff:    c.config.InitialBackoff,
		MaxBackoff:        c.config.MaxBackoff,
		BackoffMultiplier: 2.0,
	}

	return retryWithBackoff(ctx, retryCfg, c.logger, func() error {
		return c.do(ctx, endpoint, path, out)
	})
}

// do executes a single attempt.
func (c *Client) do(ctx context.Context, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("path", path).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return &APIError{
			Class:   errClass,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		errClass := c.classifyError(resp, nil)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		msg := resp.Status
		if s := strings.TrimSpace(string(snippet)); s != "" {
			msg = resp.Status + ": " + s
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      errClass,
			Message:    msg,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// classifyError categorizes a failure for observability and retry decisions.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	if resp.StatusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

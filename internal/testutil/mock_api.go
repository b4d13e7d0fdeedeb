// Package testutil provides testing utilities for the storefront packages.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
)

// MockResponse defines a canned response for a mock API path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock product API for testing.
//
// By default it serves:
//
//	GET /api/{category}                       -> {"products": [...]}
//	GET /api/products/details/{id}            -> {"product": {...}} or 404
//	GET /api/products/recommendations/{id}    -> {"recommendations": [...]}
//
// from the products registered with SetProducts.
type MockAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	products  map[string][]catalog.Product
	responses map[string]MockResponse
	failures  map[string]failure
	requests  map[string]int

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

type failure struct {
	remaining int
	status    int
}

// NewMockAPI starts a new mock product API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		products:  make(map[string][]catalog.Product),
		responses: make(map[string]MockResponse),
		failures:  make(map[string]failure),
		requests:  make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.requests = make(map[string]int)
}

// SetProducts registers the product list of a category.
func (m *MockAPI) SetProducts(category string, products []catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[catalog.NormalizeCategory(category)] = products
}

// SetResponse overrides the response for an exact path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = resp
}

// FailNext makes the next n requests to path answer with status.
func (m *MockAPI) FailNext(path string, n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = failure{remaining: n, status: status}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockAPI) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

// GetPathCount returns the number of requests made to path.
func (m *MockAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[path]
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	m.mu.Lock()
	m.RequestCount++
	m.requests[path]++
	m.LastRequestHeader = r.Header.Clone()

	if f, ok := m.failures[path]; ok && f.remaining > 0 {
		f.remaining--
		m.failures[path] = f
		m.mu.Unlock()
		writeJSON(w, f.status, map[string]string{"error": http.StatusText(f.status)})
		return
	}

	resp, custom := m.responses[path]
	m.mu.Unlock()

	if custom {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
		return
	}

	m.defaultHandler(w, r)
}

// defaultHandler serves the registered products.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/api/")
	if !ok || rest == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := strings.CutPrefix(rest, "products/details/"); ok {
		if p, found := m.find(id); found {
			writeJSON(w, http.StatusOK, map[string]any{"product": p})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}

	if id, ok := strings.CutPrefix(rest, "products/recommendations/"); ok {
		recs := []catalog.Product{}
		for _, products := range m.products {
			for _, p := range products {
				if p.ProductID != id && len(recs) < 4 {
					recs = append(recs, p)
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
		return
	}

	products, found := m.products[catalog.NormalizeCategory(rest)]
	if !found {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (m *MockAPI) find(id string) (catalog.Product, bool) {
	for _, products := range m.products {
		for _, p := range products {
			if p.ProductID == id {
				return p, true
			}
		}
	}
	return catalog.Product{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewJSONResponse creates a 200 OK response with the given body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/browse"
	"github.com/Sternrassler/beauty-storefront/pkg/cart"
	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/client"
	"github.com/Sternrassler/beauty-storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// requestTimeout bounds the upstream work of a single request.
const requestTimeout = 30 * time.Second

// maxPages caps the pages query parameter of category listings.
const maxPages = 10000

// productAPI is the part of the product client used for product pages.
type productAPI interface {
	ProductDetails(ctx context.Context, productID string) (catalog.Product, error)
	Recommendations(ctx context.Context, productID string) ([]catalog.Product, error)
}

type server struct {
	redis    *redis.Client
	page     *cart.Page
	badge    *cart.Badge
	loader   *browse.Loader
	products productAPI
	pageSize int
	logger   zerolog.Logger

	// periodicSweep is set when sweepLoop runs; request views then skip
	// their own first-Open sweep.
	periodicSweep bool

	// viewLogger has no component tag; views add their own.
	viewLogger zerolog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.readyHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.getCart)
		r.Delete("/", s.clearCart)
		r.Get("/count", s.getCartCount)
		r.Post("/items", s.addItem)
		r.Patch("/items/{id}", s.updateItem)
		r.Delete("/items/{id}", s.removeItem)
		r.Post("/items/{id}/increment", s.incrementItem)
		r.Post("/items/{id}/decrement", s.decrementItem)
	})

	r.Get("/categories", s.listCategories)
	r.Get("/categories/{category}", s.getCategory)

	r.Get("/products/{id}", s.getProduct)
	r.Get("/products/{id}/recommendations", s.getRecommendations)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.redis.Ping(r.Context()).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.page.View())
}

func (s *server) getCartCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.badge.Count()})
}

func (s *server) addItem(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product: "+err.Error())
		return
	}
	if p.ProductID == "" {
		writeError(w, http.StatusBadRequest, "ProductId is required")
		return
	}

	s.respondMutation(w, s.page.Add(r.Context(), p))
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"quantity\": n}")
		return
	}

	s.respondMutation(w, s.page.SetQuantity(r.Context(), chi.URLParam(r, "id"), *req.Quantity))
}

func (s *server) removeItem(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.page.Remove(r.Context(), chi.URLParam(r, "id")))
}

func (s *server) incrementItem(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.page.Increment(r.Context(), chi.URLParam(r, "id")))
}

func (s *server) decrementItem(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.page.Decrement(r.Context(), chi.URLParam(r, "id")))
}

func (s *server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.page.Clear(r.Context()))
}

// respondMutation renders the cart after a mutation. A persistence failure
// still changed the in-memory cart and is reported as a server error.
func (s *server) respondMutation(w http.ResponseWriter, err error) {
	if err != nil {
		s.logger.Error().Err(err).Msg("Cart mutation failed")
		status := http.StatusInternalServerError
		if errors.Is(err, cart.ErrStoreClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.page.View())
}

func (s *server) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

// getCategory renders a category listing. Query parameters: filter (group
// name), sort (rating, reviews) and pages (number of revealed pages).
func (s *server) getCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	pages := 1
	if raw := query.Get("pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "pages must be a positive integer")
			return
		}
		pages = min(n, maxPages)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var opts []browse.ViewOption
	if s.periodicSweep {
		opts = append(opts, browse.WithoutSweep())
	}
	view := browse.NewView(s.loader, s.pageSize, s.viewLogger, opts...)
	defer view.Close()

	err := view.Open(ctx, chi.URLParam(r, "category"))
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}

	if filter := query.Get("filter"); filter != "" {
		view.SelectFilter(filter)
	}
	view.SetSort(catalog.ParseSortOrder(query.Get("sort")))
	view.SetPages(pages)

	snap := view.Snapshot()
	if snap.State == browse.StateFailed {
		writeJSON(w, http.StatusBadGateway, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := s.products.ProductDetails(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recs, err := s.products.Recommendations(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *server) writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error().Err(err).Msg("Product API request failed")
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package mockstore is a local storefront emulator. It serves the wire
// protocol the storefront client consumes (product publications, checkout
// lifecycle, shipping rates, gift cards) from fixture catalogs, so apps
// built on this SDK can develop against a local port instead of a live shop.
//
// Catalog state lives in Badger and is replaced wholesale whenever fixtures
// load; checkouts created by clients persist across reloads. Pricing is
// recomputed server-side on every checkout write, the same way the real
// platform owns all derived money fields.
package mockstore

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/msautoparts/buy-sdk-go/internal/ratelimit"
	"github.com/msautoparts/buy-sdk-go/internal/validation"
)

// Server is the emulator's HTTP front end.
type Server struct {
	store    *Store
	index    *Index
	logger   *slog.Logger
	router   *chi.Mux
	limiter  *ratelimit.Limiter
	validate *validation.Validator

	mu sync.Mutex
	// ratesPrimed tracks which checkouts have already had shipping rates
	// requested once. The first request answers 202 like the real platform,
	// which computes rates asynchronously.
	ratesPrimed map[string]bool
}

// Options configures a Server. Store is required; everything else has
// workable defaults.
type Options struct {
	Store  *Store
	Index  *Index
	Logger *slog.Logger

	// RateRPS throttles inbound requests per client IP when positive,
	// answering 429 beyond the budget. Zero disables throttling.
	RateRPS   float64
	RateBurst int
}

// NewServer assembles the emulator's router.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("mockstore: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:       opts.Store,
		index:       opts.Index,
		logger:      logger.With("component", "server"),
		validate:    validation.New(),
		ratesPrimed: make(map[string]bool),
	}
	if opts.RateRPS > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = ratelimit.New(opts.RateRPS, burst)
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Browser-based store previews hit the emulator cross-origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if s.limiter != nil {
		s.router.Use(s.rateLimit)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/meta.json", s.handleGetMeta)

		r.Route("/channels/{channelID}", func(r chi.Router) {
			r.Get("/products.json", s.handleListProducts)
			r.Get("/products/search.json", s.handleSearchProducts)
			r.Get("/products/{productID}.json", s.handleGetProduct)
			r.Get("/collections.json", s.handleListCollections)
		})

		r.Post("/checkouts.json", s.handleCreateCheckout)
		r.Get("/checkouts/{token}.json", s.handleGetCheckout)
		r.Patch("/checkouts/{token}.json", s.handleUpdateCheckout)
		r.Route("/checkouts/{token}", func(r chi.Router) {
			r.Get("/shipping_rates.json", s.handleGetShippingRates)
			r.Post("/gift_cards.json", s.handleApplyGiftCard)
			r.Delete("/gift_cards/{giftCardID}.json", s.handleRemoveGiftCard)
		})
	})
}

// requestLogger logs one line per request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// rateLimit answers 429 once a client IP exhausts its request budget. It
// doubles as a way to exercise client backoff handling locally.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !s.limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
			writeErrorMessage(w, http.StatusTooManyRequests, "too many requests", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := s.store.products.Count(ctx)
	if err != nil {
		s.logger.Error("Health check failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "store unavailable", s.logger)
		return
	}
	checkouts, err := s.store.checkouts.Count(ctx)
	if err != nil {
		s.logger.Error("Health check failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "store unavailable", s.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"products":  products,
		"checkouts": checkouts,
	}, s.logger)
}

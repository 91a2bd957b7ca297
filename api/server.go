// Package api provides the HTTP REST API server for FareScout.
//
// It exposes endpoints for flight search, paginated results, location
// lookup, catalog enumeration, currency conversion, and WebSocket
// streaming of catalog build progress.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/voyago/farescout/internal/config"
	"github.com/voyago/farescout/internal/fx"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/internal/session"
	"github.com/voyago/farescout/internal/travel"
	"github.com/voyago/farescout/pkg/models"
)

// SessionHeader carries the session ID between client and server. The server
// echoes it on every response so clients can persist it from the first call.
const SessionHeader = "X-Session-ID"

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	log      *zap.Logger
	reg      *provider.Registry
	sessions *session.Manager
	resolver *travel.Resolver
	catalog  *travel.CatalogBuilder
	search   *travel.FlightSearch
	conv     *fx.Converter
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// The registry must already have its providers registered.
func NewServer(cfg *config.Config, log *zap.Logger, reg *provider.Registry) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	conv := fx.New(reg, log)
	catalogRate := cfg.Search.CatalogRatePerSec
	if catalogRate <= 0 {
		catalogRate = 1
	}

	srv := &Server{
		cfg:      cfg,
		log:      log,
		reg:      reg,
		sessions: session.NewManager(cfg.Search.PageSize),
		resolver: travel.NewResolver(reg, log),
		catalog:  travel.NewCatalogBuilderWithPace(reg, log, catalogRate, time.Second),
		search:   travel.NewFlightSearch(reg, conv, log),
		conv:     conv,
		wsHub:    NewWSHub(),
	}

	// Catalog builds take tens of seconds at quota pace; stream per-letter
	// progress to connected WebSocket clients.
	srv.catalog.SetProgress(func(p travel.CatalogProgress) {
		srv.wsHub.Broadcast(WSMessage{Type: "catalog_progress", Data: p})
	})

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", SessionHeader},
		ExposedHeaders:   []string{"X-Request-ID", SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Flight search and paginated results
		r.Post("/search", s.handleSearch)
		r.Get("/results", s.handleResults)
		r.Post("/results/next", s.handleResultsNext)
		r.Post("/results/prev", s.handleResultsPrev)

		// Locations
		r.Get("/locations", s.handleLocations)
		r.Get("/catalog", s.handleCatalog)

		// Currency conversion
		r.Get("/convert", s.handleConvert)

		// Provider registry introspection
		r.Get("/providers", s.handleProviders)

		// WebSocket (catalog build progress)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs each request through the server's zap logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// session resolves the caller's session from the X-Session-ID header, creating
// a fresh one when the header is absent or stale, and echoes the ID back.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := s.sessions.GetOrCreate(r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sess.ID)
	return sess
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SearchRequest is the body for POST /api/v1/search. Origin and destination
// are free-text place names resolved to IATA codes before searching.
type SearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"` // YYYY-MM-DD
	Adults      int    `json:"adults,omitempty"`
}

// SearchResponse is the body for POST /api/v1/search: the first result page
// plus warnings for degraded outcomes (unresolvable inputs, lookup faults).
type SearchResponse struct {
	ResultsPage
	Warnings []string `json:"warnings,omitempty"`
}

// ResultsPage is one page of flight records plus paging state.
type ResultsPage struct {
	SessionID string                `json:"session_id"`
	Page      int                   `json:"page"`
	Pages     int                   `json:"pages"`
	Total     int                   `json:"total"`
	Records   []models.FlightRecord `json:"records"`
}

// CatalogResponse is the body for GET /api/v1/catalog.
type CatalogResponse struct {
	Names    []string `json:"names"`
	Cached   bool     `json:"cached"`
	Degraded bool     `json:"degraded,omitempty"` // some letters failed
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":    "ok",
			"providers": len(s.reg.List()),
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Origin == "" || req.Destination == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "origin, destination and date are required")
		return
	}
	if req.Adults == 0 {
		req.Adults = 1
	}
	if req.Adults < 1 {
		writeError(w, http.StatusBadRequest, "adults must be positive")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; use YYYY-MM-DD")
		return
	}

	sess := s.session(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	// An unresolvable place or a lookup fault is a degraded outcome, not a
	// system fault: the session gets an empty result set and the response
	// carries a warning.
	var warnings []string
	resolve := func(label, name string) string {
		code, err := s.resolver.Resolve(ctx, name)
		if err != nil {
			warnings = append(warnings, label+" lookup failed: "+err.Error())
			return ""
		}
		if code == "" {
			warnings = append(warnings, "no location matches "+label+" "+strconv.Quote(name))
		}
		return code
	}
	originCode := resolve("origin", req.Origin)
	destCode := resolve("destination", req.Destination)
	if originCode == "" || destCode == "" {
		sess.SetResults(nil)
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    SearchResponse{ResultsPage: pageOf(sess), Warnings: warnings},
		})
		return
	}

	// The search itself fails closed: a provider fault yields no results.
	records, err := s.search.Search(ctx, originCode, destCode, req.Date, req.Adults)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sess.SetResults(records)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    SearchResponse{ResultsPage: pageOf(sess), Warnings: warnings},
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    pageOf(sess),
	})
}

func (s *Server) handleResultsNext(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Next()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    pageOf(sess),
	})
}

func (s *Server) handleResultsPrev(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Prev()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    pageOf(sess),
	})
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := s.reg.Fetch(ctx, provider.ModelLocationSearch,
		provider.QueryParams{provider.ParamKeyword: keyword})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res.Data,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if names, built := sess.Catalog(); built {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    CatalogResponse{Names: names, Cached: true},
		})
		return
	}

	// The enumeration is paced; at the default one letter per second a full
	// build takes close to half a minute.
	names, err := s.catalog.Build(r.Context())
	if err != nil && len(names) == 0 {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sess.SetCatalog(names)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    CatalogResponse{Names: names, Degraded: err != nil},
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Conversion fails soft: an FX outage yields the original amount marked
	// as estimated, not an error response.
	conv, convErr := s.conv.ConvertDetailed(ctx, amount, from, to)
	data := map[string]any{"conversion": conv}
	if convErr != nil {
		data["warning"] = convErr.Error()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"providers": s.reg.List(),
			"coverage":  s.reg.ModelCoverage(),
		},
	})
}

// ============================================================
// Helpers
// ============================================================

func pageOf(sess *session.Session) ResultsPage {
	return ResultsPage{
		SessionID: sess.ID,
		Page:      sess.PageIndex(),
		Pages:     sess.PageCount(),
		Total:     len(sess.Results()),
		Records:   sess.Page(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

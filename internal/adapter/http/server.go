// Package http serves the search API, health probes and metrics.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/airmen-search-service/internal/aircraft"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/search"
)

// Searcher runs qualification searches.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

// Suggester lists aircraft autocomplete entries.
type Suggester interface {
	Suggest(q string) []aircraft.Suggestion
}

// MetaStore returns the last completed import, or domain.ErrNotFound.
type MetaStore interface {
	GetImportMeta(ctx context.Context) (domain.ImportMeta, error)
}

// ExtractInfo reports when the source extracts last changed.
type ExtractInfo interface {
	LastModified() time.Time
}

// Deps are the collaborators behind the API routes.
type Deps struct {
	Searcher  Searcher
	Suggester Suggester
	Meta      MetaStore
	Extracts  ExtractInfo
	Ready     sharedobs.ReadinessChecker
}

// Server exposes the search API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	router.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	router.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Ready)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api")
	{
		api.GET("/search", h.search)
		api.GET("/suggest", h.suggest)
		api.GET("/meta", h.meta)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) search(c *gin.Context) {
	q, err := search.ParseQuery(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.deps.Searcher.Search(c.Request.Context(), q)
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) suggest(c *gin.Context) {
	suggestions := h.deps.Suggester.Suggest(c.Query("q"))
	if suggestions == nil {
		suggestions = []aircraft.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type metaResponse struct {
	LastImport     *domain.ImportMeta `json:"lastImport"`
	LastModifiedMs *int64             `json:"lastModifiedMs"`
}

func (h *handlers) meta(c *gin.Context) {
	var out metaResponse

	m, err := h.deps.Meta.GetImportMeta(c.Request.Context())
	switch {
	case err == nil:
		out.LastImport = &m
	case !errors.Is(err, domain.ErrNotFound):
		h.logger.Error("read import metadata", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "metadata unavailable"})
		return
	}

	if h.deps.Extracts != nil {
		if t := h.deps.Extracts.LastModified(); !t.IsZero() {
			ms := t.UnixMilli()
			out.LastModifiedMs = &ms
		}
	}
	c.JSON(http.StatusOK, out)
}

// requestLogger logs one line per request at debug, or warn for 5xx.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Package httpapi exposes the orchestration engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/triaged/internal/config"
	"github.com/fyrsmithlabs/triaged/internal/documents"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/supervisor"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"github.com/fyrsmithlabs/triaged/internal/workflow/retrieval"
)

// Runner runs one orchestration pass for a request.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) supervisor.Output
}

var _ Runner = (*supervisor.Supervisor)(nil)

// ContentIndexer indexes uploaded document content for retrieval.
type ContentIndexer interface {
	AddContent(ctx context.Context, userID, docID, content string, metadata map[string]string) error
}

var _ ContentIndexer = (*retrieval.Index)(nil)

// Server provides the HTTP endpoints for triaged.
type Server struct {
	echo   *echo.Echo
	runner Runner
	store  documents.Store
	index  ContentIndexer
	logger *logging.Logger
	cfg    config.ServerConfig
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg config.ServerConfig, runner Runner, store documents.Store, index ContentIndexer, logger *logging.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:   e,
		runner: runner,
		store:  store,
		index:  index,
		logger: logger,
		cfg:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

// requestLogger threads the request ID into the request context and logs
// one line per request.
func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), reqID)
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)))
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/route", s.handleRoute)
	v1.POST("/documents", s.handleUpsertDocument)
	v1.GET("/documents/:user_id", s.handleListDocuments)
	v1.DELETE("/documents/:id", s.handleDeleteDocument)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// RouteRequest is the request body for POST /api/v1/route.
type RouteRequest struct {
	Query   string            `json:"query"`
	UserID  string            `json:"user_id"`
	Context map[string]string `json:"context,omitempty"`
}

func (s *Server) handleRoute(c echo.Context) error {
	var req RouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id field is required")
	}

	out := s.runner.Run(c.Request().Context(), workflow.Request{
		Query:   req.Query,
		UserID:  req.UserID,
		Context: req.Context,
	})
	return c.JSON(http.StatusOK, out)
}

// UpsertDocumentRequest is the request body for POST /api/v1/documents.
// Content is optional; when present it is indexed for retrieval.
type UpsertDocumentRequest struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

func (s *Server) handleUpsertDocument(c echo.Context) error {
	var req UpsertDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id field is required")
	}
	docType, err := documents.ParseType(req.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rec := documents.Record{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      docType,
		Status:    documents.StatusReady,
		Name:      req.Name,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.store.Upsert(ctx, rec); err != nil {
		s.logger.Error(ctx, "document upsert failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store document")
	}

	if req.Content != "" && s.index != nil {
		meta := map[string]string{
			"type": string(docType),
			"name": req.Name,
		}
		if err := s.index.AddContent(ctx, req.UserID, rec.ID, req.Content, meta); err != nil {
			// The status record is already written; the document counts
			// as present even if its content cannot be searched.
			s.logger.Warn(ctx, "document content indexing failed",
				zap.String("document_id", rec.ID),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, rec)
}

// ListDocumentsResponse is the response body for GET /api/v1/documents/:user_id.
type ListDocumentsResponse struct {
	Documents []documents.Record `json:"documents"`
}

func (s *Server) handleListDocuments(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	ctx := c.Request().Context()
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "document list failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list documents")
	}
	if recs == nil {
		recs = []documents.Record{}
	}
	return c.JSON(http.StatusOK, ListDocumentsResponse{Documents: recs})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		s.logger.Error(ctx, "document delete failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete document")
	}
	return c.NoContent(http.StatusNoContent)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

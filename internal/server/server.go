// Package server is the HTTP front end: a JSON query endpoint and a small
// browser page that calls it.
package server

import (
	"context"
	_ "embed"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/reinhart/finAgent/internal/logger"
)

//go:embed static/index.html
var indexHTML string

// Querier answers one query.
type Querier interface {
	ProcessQuery(ctx context.Context, query string) (string, error)
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server routes HTTP requests to a Querier. A nil Querier means the tool
// provider connection failed at startup; queries are then refused.
type Server struct {
	querier Querier
	echo    *echo.Echo
}

func New(q Querier) *Server {
	s := &Server{querier: q, echo: echo.New()}
	s.echo.Use(middleware.Recover())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.index)
	s.echo.GET("/favicon.ico", s.favicon)
	s.echo.POST("/api/query", s.query)
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) index(c *echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

func (s *Server) favicon(c *echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) query(c *echo.Context) error {
	if s.querier == nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Not connected to MCP server"})
	}

	var req queryRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "Query is required"})
	}

	logger.Info("HTTP query: %s", req.Query)
	resp, err := s.querier.ProcessQuery(c.Request().Context(), req.Query)
	if err != nil {
		logger.Error("query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
	return c.JSON(http.StatusOK, queryResponse{Response: resp})
}

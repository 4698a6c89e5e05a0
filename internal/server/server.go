// Package server exposes the submission pipeline over HTTP: an HTML form,
// a JSON API, health and metrics.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/logger"
	"intent-classifier/internal/submission"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context, form submission.Form) (*submission.Result, error)
}

// Server wires HTTP handlers to the submission service.
// HealthCheck reports whether one dependency is usable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

type Server struct {
	submitter Submitter
	checks    []HealthCheck
	logger    logger.Logger
	http      *http.Server
	engine    *gin.Engine
}

func New(cfg config.ServerConfig, submitter Submitter, log logger.Logger, checks ...HealthCheck) (*Server, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		submitter: submitter,
		checks:    checks,
		logger:    log.With(map[string]interface{}{"component": "http"}),
	}

	engine, err := s.Router()
	if err != nil {
		return nil, err
	}
	s.engine = engine

	readTimeout := time.Duration(cfg.ReadTimeout) * time.Millisecond
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           engine,
		ReadHeaderTimeout: readTimeout,
	}
	return s, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleForm)
	r.POST("/", s.handleFormSubmit)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/classify", s.handleClassify)
	}

	return r, nil
}

// Handler returns the configured engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleHealth runs every registered check and answers 503 when any fails.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, hc := range s.checks {
		if err := hc.Check(ctx); err != nil {
			results[hc.Name] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
			s.logger.Warn("health check failed", map[string]interface{}{
				"check": hc.Name,
				"error": err.Error(),
			})
			continue
		}
		results[hc.Name] = "ok"
	}

	c.JSON(code, gin.H{"status": status, "checks": results})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/healthz" {
			return
		}
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// Package server exposes the survey engine and store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/internal/store"
)

// Options configures a Server.
type Options struct {
	Parse           surveyschema.ParseOpt
	ShutdownTimeout time.Duration
	// LivePongWait is how long a live session may stay silent before it is
	// dropped. The server pings at 9/10 of it.
	LivePongWait time.Duration
	Logger       *slog.Logger
}

// Server wires HTTP handlers to the engine and a Store.
type Server struct {
	store   store.Store
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
	engine  *gin.Engine
}

// New builds a Server and registers its routes.
func New(st store.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.LivePongWait <= 0 {
		opts.LivePongWait = 60 * time.Second
	}
	s := &Server{store: st, opts: opts, logger: logger, metrics: newMetrics()}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.routes(r)
	s.engine = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/parse", s.handleParse)
	v1.POST("/convert", s.handleConvert)
	v1.POST("/merge", s.handleMerge)

	surveys := v1.Group("/surveys")
	surveys.POST("", s.handleCreate)
	surveys.GET("", s.handleList)
	byID := surveys.Group("/:id", s.loadSurvey())
	byID.GET("", s.handleGet)
	byID.PUT("", s.handleUpdate)
	byID.DELETE("", s.handleDelete)
	byID.POST("/autosave", s.handleAutosave)
	byID.POST("/generated", s.handleGenerated)
	byID.GET("/live", s.handleLive)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// parse runs the engine with the server's options and records metrics.
func (s *Server) parse(code, format string, strict *bool) surveyschema.ParseResult {
	opt := s.opts.Parse
	if strict != nil {
		opt.Strict = *strict
	}
	res := surveyschema.ParseSurveyString(code, format, opt)
	label := "unknown"
	if f, err := surveyschema.ParseFormat(format); err == nil {
		label = f.String()
	}
	s.metrics.observeParse(label, res)
	return res
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorPayload(err))
		return
	}
	s.logger.Error("store failure", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

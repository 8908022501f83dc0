// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package server exposes the gateway operations over HTTP with JSON bodies.
//
// Routes:
//
//	POST /api/test-connection  probe a target store
//	POST /api/test-commands    execute a command batch
//	GET  /healthz              liveness
//	GET  /version              build version
//	GET  /metrics              Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"redisgate/cli/internal/gateway"
	"redisgate/cli/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 64 << 10

// Options configures a Server.
type Options struct {
	Addr         string
	MaxBodyBytes int64
	CORSOrigins  []string
	Version      string
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
}

// Server serves the HTTP API.
type Server struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	service      *gateway.Service
	maxBodyBytes int64
	corsOrigins  []string
	version      string
	logger       zerolog.Logger
	metrics      *metrics.Metrics

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// New creates a Server for svc.
func New(svc *gateway.Service, opts Options) *Server {
	s := &Server{
		Addr:         opts.Addr,
		service:      svc,
		maxBodyBytes: opts.MaxBodyBytes,
		corsOrigins:  opts.CORSOrigins,
		version:      opts.Version,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID(s.logger))
	r.Use(RequestLogger())
	r.Use(RequestMetrics(s.metrics))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.New(corsConfig(s.corsOrigins)))
	}

	r.POST("/api/test-connection", s.handleProbe)
	r.POST("/api/test-commands", s.handleBatch)
	r.GET("/healthz", s.handleHealth)
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": s.version})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Start begins accepting connections.
// Returns an error if the server is already running or fails to listen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("http server already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("http server listening")
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.server.Shutdown(ctx)
}

// ListenAddr returns the actual address the server is listening on.
// Returns empty string if the server is not running.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

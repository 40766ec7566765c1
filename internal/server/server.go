// Package server exposes conversion and validation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/fixconv/internal/auth"
	"github.com/danmuck/fixconv/internal/config"
	"github.com/danmuck/fixconv/internal/converter"
	"github.com/danmuck/fixconv/internal/observability"
	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	serviceName     = "fixconv"
	serviceVersion  = "0.1.0"
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	Addr           string
	DefaultVersion string
	Appeared       time.Time

	apiToken string
	conv     *converter.Converter
	registry *protocol.Registry
	store    *store.Store
	router   *gin.Engine
}

func New(cfg config.Config, conv *converter.Converter, registry *protocol.Registry) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(cfg.Server.CorsOrigins),
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", auth.HeaderAPIKey, observability.RequestIDHeader},
		ExposeHeaders: []string{observability.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:           cfg.Server.Addr,
		DefaultVersion: cfg.DefaultVersion,
		Appeared:       time.Now(),
		apiToken:       cfg.Server.APIToken,
		conv:           conv,
		registry:       registry,
		router:         r,
	}
	s.RegisterRoutes()
	return s
}

// WithStore persists every successful /v1/convert and enables record lookup.
func (s *Server) WithStore(st *store.Store) *Server {
	s.store = st
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("fixconv server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Str("addr", s.Addr).Msg("fixconv server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

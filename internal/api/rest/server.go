package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/cache"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/config"
	"github.com/lrazine99/purple-dog-sub000/internal/service/bidding"
)

// Server is the engine's HTTP front end
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer assembles routes and middleware into a ready-to-run HTTP server
func NewServer(cfg *config.Config, biddingSvc bidding.Service, limiter cache.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	handler := NewHandler(biddingSvc, logger)
	handler.RegisterRoutes(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	var root http.Handler = mux
	root = Chain(root,
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		RateLimitMiddleware(limiter,
			cfg.Auction.RateLimit.BidsPerMinute, time.Minute, logger),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      root,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving HTTP until the listener closes
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

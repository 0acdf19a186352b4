package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trustgate-ai/trustgate/api/handlers"
	"go.uber.org/zap"
)

// routerConfig bundles the router's collaborators.
type routerConfig struct {
	gateway handlers.Gateway
	// checks are registered on the readiness endpoint.
	checks []handlers.HealthCheck
	// rateLimitRPS throttles per-client request rate; 0 disables limiting.
	rateLimitRPS   float64
	rateLimitBurst int
	logger         *zap.Logger
}

// buildRouter assembles the gateway's HTTP handler with the full middleware
// chain applied.
func buildRouter(cfg routerConfig) http.Handler {
	logger := cfg.logger

	chatHandler := handlers.NewChatHandler(cfg.gateway, logger)
	feedbackHandler := handlers.NewFeedbackHandler(cfg.gateway, logger)
	healthHandler := handlers.NewHealthHandler(logger)
	for _, check := range cfg.checks {
		healthHandler.RegisterCheck(check)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", chatHandler.HandleChat)
	mux.HandleFunc("POST /feedback", feedbackHandler.HandleFeedback)
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := newRateLimiter(cfg.rateLimitRPS, cfg.rateLimitBurst, logger)

	return chainMiddleware(mux,
		loggingMiddleware(logger),
		corsMiddleware(),
		limiter.handler(),
	)
}

package rest

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/bibbank/registry-risk/pkg/auth"
)

// RouterConfig collects the HTTP surface. JWTService, Limiter and Metrics
// are optional.
type RouterConfig struct {
	Risk       *RiskHandler
	Health     *HealthHandler
	Metrics    http.Handler
	JWTService *auth.JWTService
	Limiter    *rate.Limiter
	Logger     *slog.Logger
}

// NewRouter builds the service's HTTP handler. Probes and /metrics bypass
// authentication and rate limiting; /api/ routes get both.
func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()
	cfg.Risk.RegisterRoutes(api)

	var apiMW []Middleware
	if cfg.Limiter != nil {
		apiMW = append(apiMW, RateLimitMiddleware(cfg.Limiter))
	}
	if cfg.JWTService != nil {
		apiMW = append(apiMW, auth.HTTPMiddleware(cfg.JWTService, nil))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", Chain(api, apiMW...))
	cfg.Health.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(mux, LoggingMiddleware(cfg.Logger), RecoveryMiddleware(cfg.Logger))
}

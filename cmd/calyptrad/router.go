package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/calyptra/calyptra/server"
)

func init() {
	for _, method := range []string{
		"PROPFIND",
		"PROPPATCH",
		"MKCOL",
		"MKCALENDAR",
		"REPORT",
	} {
		chi.RegisterMethod(method)
	}
}

// newRouter wires the protocol handler with the operational endpoints.
func newRouter(cfg *appConfig, h *server.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(newIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst).middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.PrometheusEnabled {
		r.Get("/metrics", metricsHandler().ServeHTTP)
	}

	r.Handle("/*", h)
	return r
}

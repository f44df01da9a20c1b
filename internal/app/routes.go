package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnabmitra/topcap-index/internal/cache"
	"github.com/arnabmitra/topcap-index/internal/handler"
	"github.com/arnabmitra/topcap-index/internal/middleware"
)

func (a *App) loadRoutes() {
	idx := handler.NewIndexHandler(a.logger, a.service)
	health := handler.NewHealthHandler(a.logger, map[string]handler.Pinger{
		"database": a.pingDatabase,
		"cache":    a.cache.Ping,
	})
	if m, ok := a.cache.(*cache.Memory); ok {
		health.WithStats("cache", m.Stats)
	}

	a.router.Use(chimw.RequestID)
	a.router.Use(chimw.RealIP)
	a.router.Use(func(next http.Handler) http.Handler {
		return middleware.Logging(a.logger, next)
	})
	a.router.Use(chimw.Recoverer)

	a.router.Get("/", idx.Root)
	a.router.Get("/indexperformance", idx.Performance)
	a.router.Get("/index-composition", idx.Composition)
	a.router.Get("/compositionchanges", idx.Changes)
	a.router.Get("/index-chart", idx.Chart)
	a.router.Handle("/healthz", health)
	a.router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	a.router.Group(func(r chi.Router) {
		if a.rdb != nil && a.cfg.RateLimit.Max > 0 {
			ratelimiter := middleware.RateLimiter{
				Period:  a.cfg.RateLimit.Period,
				MaxRate: a.cfg.RateLimit.Max,
				Store:   a.rdb,
				Logger:  a.logger,
			}
			r.Use(ratelimiter.Middleware)
		}
		r.Post("/build-index", idx.Build)
		r.Post("/export-data", idx.Export)
	})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/arnabmitra/topcap-index/internal/apierror"
	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// Stats returns point-in-time figures about a dependency.
type Stats func() map[string]any

type HealthHandler struct {
	logger *slog.Logger
	checks map[string]Pinger
	stats  map[string]Stats
}

func NewHealthHandler(logger *slog.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks, stats: map[string]Stats{}}
}

// WithStats adds the figures from fn to healthy responses under name.
func (h *HealthHandler) WithStats(name string, fn Stats) *HealthHandler {
	h.stats[name] = fn
	return h
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("health check failed", slog.String("check", name), slog.Any("error", err))
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		apierror.Write(w, r, apierror.Unavailable(results))
		return
	}

	body := map[string]any{"status": "ok", "checks": results}
	if len(h.stats) > 0 {
		stats := make(map[string]any, len(h.stats))
		for name, fn := range h.stats {
			stats[name] = fn()
		}
		body["stats"] = sanitize.Value(stats)
	}
	render.JSON(w, r, body)
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/consolebot/internal/domain"
	"github.com/go-chi/chi/v5"
)

// usageWindow is the window reported by GET /api/usage.
const usageWindow = 24 * time.Hour

// UsageReader is the part of the usage ledger the health endpoints need.
type UsageReader interface {
	Ping(ctx context.Context) error
	UsageSummary(ctx context.Context, since time.Time) (*domain.UsageSummary, error)
}

// HealthHandler reports service health and relay usage.
type HealthHandler struct {
	repo    UsageReader
	model   string
	started time.Time
}

// NewHealthHandler creates a health handler reporting model as the relay's upstream model.
func NewHealthHandler(repo UsageReader, model string) *HealthHandler {
	return &HealthHandler{repo: repo, model: model, started: time.Now()}
}

// RegisterHealth registers health and usage routes.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
	r.Get("/api/usage", h.Usage)
}

// Health reports liveness and ledger connectivity.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	db := "ok"
	if err := h.repo.Ping(ctx); err != nil {
		slog.Warn("Health check: database unreachable", "error", err)
		status = http.StatusServiceUnavailable
		db = "unavailable"
	}

	JSON(w, status, map[string]interface{}{
		"status":         http.StatusText(status),
		"database":       db,
		"model":          h.model,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Usage returns the ledger summary for the last 24 hours.
func (h *HealthHandler) Usage(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.UsageSummary(r.Context(), time.Now().Add(-usageWindow))
	if err != nil {
		slog.Error("Failed to read usage summary", "error", err)
		Error(w, http.StatusInternalServerError, "failed to read usage")
		return
	}
	JSON(w, http.StatusOK, summary)
}

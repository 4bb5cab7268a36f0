package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/consolebot/internal/api"
	"github.com/ashureev/consolebot/internal/domain"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

var errTrailingData = errors.New("unexpected data after request body")

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Handler serves the relay endpoint.
type Handler struct {
	agent       *Service
	usage       UsageRecorder
	maxBodySize int64
}

// NewHandler creates a relay handler. usage may be nil.
func NewHandler(agentService *Service, usage UsageRecorder, maxBodySize int64) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &Handler{
		agent:       agentService,
		usage:       usage,
		maxBodySize: maxBodySize,
	}
}

// RegisterRoutes registers relay routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
}

// GetService returns the underlying relay service.
func (h *Handler) GetService() *Service {
	return h.agent
}

// HandleChat handles POST /api/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := chiMiddleware.GetReqID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req ChatRequest
	if err := decodeRequest(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, r, start, 0, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		slog.Error("Relay request body invalid", "request_id", reqID, "error", err)
		h.respondError(w, r, start, 0, http.StatusInternalServerError, MsgInternal)
		return
	}

	if req.Messages == nil {
		h.respondError(w, r, start, 0, http.StatusBadRequest, MsgMissingMessages)
		return
	}
	for _, m := range req.Messages {
		if !m.Role.Valid() {
			h.respondError(w, r, start, len(req.Messages), http.StatusBadRequest, MsgInvalidRole)
			return
		}
	}

	slog.Info("Relay chat request",
		"request_id", reqID,
		"message_count", len(req.Messages),
	)

	content, err := h.agent.Reply(r.Context(), req.Messages)
	if err != nil {
		status, msg := Classify(err)
		var upstreamErr *UpstreamError
		switch {
		case errors.As(err, &upstreamErr):
			slog.Error("OpenRouter API error",
				"request_id", reqID,
				"status", upstreamErr.StatusCode,
				"body", upstreamErr.Body,
			)
		case errors.Is(err, ErrNoContent):
			slog.Error("No content in upstream response", "request_id", reqID)
		default:
			slog.Error("Relay request failed", "request_id", reqID, "error", err)
		}
		h.respondError(w, r, start, len(req.Messages), status, msg)
		return
	}

	h.record(r, start, len(req.Messages), http.StatusOK)
	api.JSON(w, http.StatusOK, ChatResponse{Content: content})
}

// decodeRequest decodes exactly one JSON value from body. Trailing data
// after it is an error.
func decodeRequest(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return errTrailingData
		}
		return err
	}
	return nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, start time.Time, messageCount, status int, msg string) {
	h.record(r, start, messageCount, status)
	api.Error(w, status, msg)
}

// record writes a usage-ledger entry. Ledger failures never affect the response.
func (h *Handler) record(r *http.Request, start time.Time, messageCount, status int) {
	if h.usage == nil {
		return
	}
	ex := &domain.Exchange{
		RequestID:    chiMiddleware.GetReqID(r.Context()),
		Model:        Model,
		MessageCount: messageCount,
		Status:       status,
		Latency:      time.Since(start),
		CreatedAt:    time.Now(),
	}
	if err := h.usage.RecordExchange(context.WithoutCancel(r.Context()), ex); err != nil {
		slog.Warn("failed to record usage", "request_id", ex.RequestID, "error", err)
	}
}

// AngelaMos | 2026
// handler.go

package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/nexusai/internal/config"
	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/metrics"
)

// Provider facing bodies stay flat, outside the API envelope.
type messageBody struct {
	Message string `json:"message"`
}

type successBody struct {
	Success bool `json:"success"`
}

type errorBody struct {
	Error string `json:"error"`
}

type Handler struct {
	reconciler *Reconciler
	cfg        config.WebhookConfig
	logger     *slog.Logger
}

func NewHandler(
	reconciler *Reconciler,
	cfg config.WebhookConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{reconciler: reconciler, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts the endpoint for every method so non-POST calls get
// a 405 body instead of the router default.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/webhooks/payments", h.Payments)
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		core.JSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		metrics.RecordWebhook(string(OutcomeMalformed))
		core.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if h.cfg.Secret != "" {
		sig := r.Header.Get(h.cfg.SignatureHeader)
		if !core.VerifySignature(h.cfg.Secret, body, sig) {
			metrics.RecordWebhook(string(OutcomeBadSignature))
			h.logger.Warn("webhook signature mismatch",
				"remote_addr", r.RemoteAddr,
			)
			core.JSON(w, http.StatusUnauthorized, errorBody{Error: "invalid signature"})
			return
		}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordWebhook(string(OutcomeMalformed))
		core.JSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON payload"})
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), payload)
	metrics.RecordWebhook(string(outcome))
	if err != nil {
		h.logger.Error("webhook processing failed", "error", err)
		core.JSON(w, http.StatusBadRequest, errorBody{Error: "processing failed"})
		return
	}

	switch outcome {
	case OutcomeNoEmail:
		core.JSON(w, http.StatusOK, messageBody{Message: "Email not provided"})
	case OutcomeIgnored:
		core.JSON(w, http.StatusOK, messageBody{Message: "Status ignored"})
	default:
		core.JSON(w, http.StatusOK, successBody{Success: true})
	}
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := h.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.New("payload too large")
		}
		return nil, errors.New("unreadable body")
	}
	return body, nil
}

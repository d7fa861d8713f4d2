// AngelaMos | 2026
// handler.go

package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
)

type ChatRequest struct {
	History []Turn `json:"history" validate:"max=100,dive"`
	Message string `json:"message" validate:"required,max=8000"`
}

type TextRequest struct {
	Input string `json:"input" validate:"required,max=8000"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterRoutes mounts the tools behind the given middleware chain:
// session, device activation and the plan rate limit.
func (h *Handler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/tools", func(r chi.Router) {
		r.Use(guards...)

		r.Post("/chat", h.Chat)
		r.Post("/image", h.Image)
		r.Post("/video", h.SubmitVideo)
		r.Get("/video/{jobID}", h.VideoStatus)
		r.Delete("/video/{jobID}", h.CancelVideo)
		r.Post("/{featureID}", h.Text)
	})
}

func caller(r *http.Request) Caller {
	return Caller{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetUserRole(r.Context()),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

// Chat streams model output as Server-Sent Events. Failures before the
// first byte are ordinary JSON errors; later ones arrive as an error event.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		core.InternalServerError(w, errors.New("streaming unsupported"))
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
	}

	balance, err := h.service.Chat(r.Context(), caller(r), req.History, req.Message,
		func(chunk string) error {
			start()
			if err := writeEvent(w, "chunk", map[string]string{"text": chunk}); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		},
	)

	if err != nil && !started {
		h.writeError(w, err)
		return
	}

	start()
	if err != nil {
		h.logger.Warn("chat stream interrupted", "error", err)
		_ = writeEvent(w, "error", map[string]string{"message": core.ErrorToAppError(err).Message})
	} else {
		_ = writeEvent(w, "done", balance)
	}
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}

	res, err := h.service.Image(r.Context(), caller(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, res)
}

func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Text(r.Context(), caller(r), chi.URLParam(r, "featureID"), req.Input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, res)
}

func (h *Handler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.SubmitVideo(r.Context(), caller(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Accepted(w, sub)
}

func (h *Handler) VideoStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.VideoStatus(caller(r), chi.URLParam(r, "jobID"))
	if err != nil {
		h.writeJobError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) CancelVideo(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CancelVideo(caller(r), chi.URLParam(r, "jobID"))
	if err != nil {
		h.writeJobError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := core.ErrorToAppError(err)
	if errors.Is(err, core.ErrUpstream) {
		h.logger.Error("generation backend failed", "error", err)
	}
	core.JSONError(w, appErr)
}

// writeJobError reports lookups of unknown or foreign jobs as a missing job.
func (h *Handler) writeJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.JSONError(w, core.NotFoundError("video job"))
		return
	}
	h.writeError(w, err)
}

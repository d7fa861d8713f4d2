// AngelaMos | 2026
// handler.go

package device

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
)

type ActivateRequest struct {
	Code string `json:"code" validate:"required,max=128"`
}

type ActivateResponse struct {
	State    *State `json:"state"`
	Redirect string `json:"redirect"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/device", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Post("/activate", h.Activate)
	})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	deviceID := middleware.GetDeviceID(r.Context())
	if deviceID == "" {
		core.BadRequest(w, "device id header is required")
		return
	}

	state, err := h.service.State(r.Context(), deviceID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, state)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	deviceID := middleware.GetDeviceID(r.Context())
	if deviceID == "" {
		core.BadRequest(w, "device id header is required")
		return
	}

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.Activate(r.Context(), deviceID, req.Code); err != nil {
		if errors.Is(err, ErrInvalidCode) {
			core.JSONError(w, core.UnauthorizedError("invalid activation code"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	state, err := h.service.State(r.Context(), deviceID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ActivateResponse{State: state, Redirect: "/login-pro"})
}

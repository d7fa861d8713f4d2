// AngelaMos | 2026
// handler.go

package feature

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.With(optionalAuth).Get("/navigation", h.Navigation)
	r.With(optionalAuth).Get("/features/search", h.Search)
	r.Get("/features", h.List)
}

func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Navigation(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"groups": groups})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(
		r.Context(),
		r.URL.Query().Get("q"),
		middleware.IsAdmin(r.Context()),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"results": results})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"features": all})
}

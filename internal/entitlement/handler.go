// AngelaMos | 2026
// handler.go

package entitlement

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
)

// DeviceChecker reports the activation flag of a device.
type DeviceChecker interface {
	IsActivated(ctx context.Context, deviceID string) (bool, error)
}

type Handler struct {
	guard   *Guard
	devices DeviceChecker
}

func NewHandler(guard *Guard, devices DeviceChecker) *Handler {
	return &Handler{guard: guard, devices: devices}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.With(optionalAuth).Get("/navigation/resolve", h.Resolve)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := Subject{
		Authenticated: middleware.IsAuthenticated(ctx),
		Role:          middleware.GetUserRole(ctx),
	}

	if deviceID := middleware.GetDeviceID(ctx); deviceID != "" {
		activated, err := h.devices.IsActivated(ctx, deviceID)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		subject.DeviceActivated = activated
	}

	// an admin session counts as an activated device
	if subject.Role == roleAdmin {
		subject.DeviceActivated = true
	}

	decision, err := h.guard.Resolve(ctx, r.URL.Query().Get("path"), subject)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, decision)
}

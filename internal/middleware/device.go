// AngelaMos | 2026
// device.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
)

const DeviceIDKey contextKey = "device_id"

// ActivationChecker reports whether a device holds the Pro activation flag.
type ActivationChecker interface {
	IsActivated(ctx context.Context, deviceID string) (bool, error)
}

// DeviceID copies the device identifier header into the request context.
func DeviceID(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if id != "" && len(id) <= 128 {
				r = r.WithContext(WithDeviceID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, id)
}

func GetDeviceID(ctx context.Context) string {
	if id, ok := ctx.Value(DeviceIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireActivation rejects requests from devices without the Pro flag.
// Admins pass, matching the navigation rules for the admin dashboard.
func RequireActivation(checker ActivationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAdmin(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := checker.IsActivated(r.Context(), GetDeviceID(r.Context()))
			if err != nil {
				slog.Error("device activation lookup failed", "error", err)
				core.InternalServerError(w, err)
				return
			}
			if !ok {
				core.JSONError(w, core.DeviceNotActivatedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

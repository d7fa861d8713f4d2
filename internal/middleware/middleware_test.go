// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/nexusai/internal/config"
)

type stubChecker map[string]bool

func (s stubChecker) IsActivated(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("redis down")
	}
	return s[id], nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestDeviceIDFromHeader(t *testing.T) {
	var seen string
	h := DeviceID("X-Device-ID")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetDeviceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Device-ID", "  dev-42 ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "dev-42", seen)
}

func TestRequireActivation(t *testing.T) {
	checker := stubChecker{"dev-on": true}
	h := DeviceID("X-Device-ID")(RequireActivation(checker)(okHandler))

	tests := []struct {
		name   string
		device string
		admin  bool
		want   int
	}{
		{"activated device", "dev-on", false, http.StatusOK},
		{"unknown device", "dev-off", false, http.StatusForbidden},
		{"missing header", "", false, http.StatusForbidden},
		{"admin bypasses", "", true, http.StatusOK},
		{"store failure", "broken", false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/tools/chat", nil)
			if tt.device != "" {
				req.Header.Set("X-Device-ID", tt.device)
			}
			if tt.admin {
				req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{
					UserID: "admin_local",
					Role:   "admin",
				}))
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: "u", Role: "user"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "X-Device-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Device-ID")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLocalLimiterFallback(t *testing.T) {
	l := newLocalLimiter()
	limit := PerMinute(60, 2)

	first, err := l.allow("k", limit)
	require.NoError(t, err)
	second, err := l.allow("k", limit)
	require.NoError(t, err)
	third, err := l.allow("k", limit)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Allowed)
	assert.Equal(t, 1, second.Allowed)
	assert.Equal(t, 0, third.Allowed)
	assert.Greater(t, third.RetryAfter, time.Duration(0))

	other, err := l.allow("other", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Allowed)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t,
		"/v1/tools/video/{id}",
		normalizeEndpoint("/v1/tools/video/3f2a9c1e-8b7d-4e6f-a1b2-c3d4e5f60718"),
	)
	assert.Equal(t, "/v1/tools/chat", normalizeEndpoint("/v1/tools/chat"))
}

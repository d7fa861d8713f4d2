// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/middleware"
	"github.com/carterperez-dev/nexusai/internal/plan"
)

// Auditor records admin actions in the system log.
type Auditor interface {
	Record(ctx context.Context, action, admin string) error
}

// SessionRevoker ends every session a user holds.
type SessionRevoker interface {
	LogoutAll(ctx context.Context, userID string) error
}

type Handler struct {
	service   *Service
	validator *validator.Validate
	audit     Auditor
	sessions  SessionRevoker
	logger    *slog.Logger
}

func NewHandler(
	service *Service,
	audit Auditor,
	sessions SessionRevoker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		audit:     audit,
		sessions:  sessions,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Get("/me/upgrade", h.Upgrade)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateMe(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	resp, err := h.service.Upgrade(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, resp)
}

// RegisterAdminRoutes registers admin-only user management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/plan", h.UpdateUserPlan)
		r.Post("/{userID}/ban", h.ToggleBan)
		r.Post("/{userID}/credits/refresh", h.RefreshCredits)
	})
}

// ListUsers returns a paginated list of users with optional filtering.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   q.Get("search"),
		Role:     q.Get("role"),
		Plan:     q.Get("plan"),
		Status:   q.Get("status"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		int64(total),
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// UpdateUserPlan moves a user to another plan and resets their credits.
func (h *Handler) UpdateUserPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateUserPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.ChangePlan(r.Context(), userID, plan.Parse(req.Plan))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.record(r, fmt.Sprintf("Changed plan of %s to %s", user.Email, user.Plan))
	core.OK(w, ToUserResponse(user))
}

// ToggleBan bans an active user or lifts an existing ban. Banning also
// ends every session the user holds.
func (h *Handler) ToggleBan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.ToggleBan(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	action := "Unbanned " + user.Email
	if user.IsBanned() {
		action = "Banned " + user.Email
		if h.sessions != nil {
			if err := h.sessions.LogoutAll(r.Context(), user.ID); err != nil {
				h.logger.Error("failed to revoke sessions of banned user",
					"user_id", user.ID,
					"error", err,
				)
			}
		}
	}

	h.record(r, action)
	core.OK(w, ToUserResponse(user))
}

// RefreshCredits refills a user's balance to the ceiling of their plan.
func (h *Handler) RefreshCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.RefreshCredits(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.record(r, fmt.Sprintf("Refreshed credits of %s to %d", user.Email, user.Credits))
	core.OK(w, ToUserResponse(user))
}

// userIDParam rejects ids that cannot name a stored account, so they never
// reach the uuid column.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userID")
	if _, err := uuid.Parse(id); err != nil {
		core.NotFound(w, "user")
		return "", false
	}
	return id, true
}

func (h *Handler) record(r *http.Request, action string) {
	if h.audit == nil {
		return
	}
	admin := middleware.GetUserID(r.Context())
	if err := h.audit.Record(r.Context(), action, admin); err != nil {
		h.logger.Warn("failed to record admin action", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrBanned):
		core.Forbidden(w, "account banned")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "admin users cannot be banned")
	case errors.Is(err, ErrLocalAdminReadOnly):
		core.Forbidden(w, "the local administrator profile cannot be edited")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid plan")
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/feature"
	"github.com/carterperez-dev/nexusai/internal/middleware"
	"github.com/carterperez-dev/nexusai/internal/user"
)

type UserStats interface {
	Totals(ctx context.Context) (*user.Totals, error)
}

type FeatureToggler interface {
	Toggle(ctx context.Context, id string) (feature.Feature, error)
}

type AuditLog interface {
	Record(ctx context.Context, action, admin string) error
	Entries(ctx context.Context, limit int) ([]LogEntry, error)
	Count(ctx context.Context) (int64, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
	users      UserStats
	features   FeatureToggler
	log        AuditLog
	validator  *validator.Validate
	logger     *slog.Logger
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	Users      UserStats
	Features   FeatureToggler
	Log        AuditLog
	Logger     *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		users:      cfg.Users,
		features:   cfg.Features,
		log:        cfg.Log,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/overview", h.Overview)
		r.Get("/logs", h.Logs)
		r.Post("/command", h.Command)
		r.Post("/features/{featureID}/toggle", h.ToggleFeature)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := h.users.Totals(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	logCount, err := h.log.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, OverviewResponse{
		Users:      totals.Users,
		Pro:        totals.Pro,
		Enterprise: totals.Enterprise,
		Banned:     totals.Banned,
		LogEntries: logCount,
	})
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.Entries(r.Context(), 0)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"logs": entries})
}

func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	h.record(r, "Command: "+req.Command)
	core.OK(w, CommandResponse{Reply: Interpret(req.Command)})
}

func (h *Handler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	f, err := h.features.Toggle(r.Context(), chi.URLParam(r, "featureID"))
	if err != nil {
		if errors.Is(err, core.ErrFeatureMissing) {
			core.NotFound(w, "feature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	state := "disabled"
	if f.Enabled {
		state = "enabled"
	}
	h.record(r, "Feature "+f.ID+" "+state)

	core.OK(w, f)
}

func (h *Handler) record(r *http.Request, action string) {
	admin := middleware.GetUserID(r.Context())
	if err := h.log.Record(r.Context(), action, admin); err != nil {
		h.logger.Warn("failed to record admin action", "error", err)
	}
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type CommandRequest struct {
	Command string `json:"command" validate:"required,max=500"`
}

type CommandResponse struct {
	Reply string `json:"reply"`
}

type OverviewResponse struct {
	Users      int   `json:"users"`
	Pro        int   `json:"pro"`
	Enterprise int   `json:"enterprise"`
	Banned     int   `json:"banned"`
	LogEntries int64 `json:"log_entries"`
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/nexusai/internal/admin"
	"github.com/carterperez-dev/nexusai/internal/auth"
	"github.com/carterperez-dev/nexusai/internal/config"
	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/device"
	"github.com/carterperez-dev/nexusai/internal/entitlement"
	"github.com/carterperez-dev/nexusai/internal/feature"
	"github.com/carterperez-dev/nexusai/internal/generation"
	"github.com/carterperez-dev/nexusai/internal/health"
	"github.com/carterperez-dev/nexusai/internal/media"
	"github.com/carterperez-dev/nexusai/internal/metrics"
	"github.com/carterperez-dev/nexusai/internal/middleware"
	"github.com/carterperez-dev/nexusai/internal/plan"
	"github.com/carterperez-dev/nexusai/internal/server"
	"github.com/carterperez-dev/nexusai/internal/user"
	"github.com/carterperez-dev/nexusai/internal/webhook"
	"github.com/carterperez-dev/nexusai/internal/worker"
)

const (
	drainDelay          = 5 * time.Second
	tokenPurgeInterval  = time.Hour
	jobShutdownDeadline = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	genKeys := flag.Bool("genkeys", false, "generate the ES256 signing key pair and exit")
	hashSecret := flag.String("hash-secret", "", "print the argon2id hash of a secret and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	var err error
	switch {
	case *hashSecret != "":
		err = printHash(*hashSecret)
	case *genKeys:
		err = generateKeys()
	default:
		err = run(*configPath, *migrateOnly)
	}

	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func printHash(secret string) error {
	hash, err := core.HashPassword(secret)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func generateKeys() error {
	priv := envOr("JWT_PRIVATE_KEY_PATH", "keys/private.pem")
	pub := envOr("JWT_PUBLIC_KEY_PATH", "keys/public.pem")
	if err := auth.GenerateKeyPair(priv, pub); err != nil {
		return err
	}
	slog.Info("key pair written", "private", priv, "public", pub)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if _, statErr := os.Stat(configPath); errors.Is(statErr, fs.ErrNotExist) {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrateOnly || cfg.Database.AutoMigrate {
		version, migErr := db.Migrate()
		if migErr != nil {
			return migErr
		}
		logger.Info("migrations applied", "version", version)
		if migrateOnly {
			return nil
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}()
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mediaStore, err := media.New(ctx, cfg.Media)
	if err != nil {
		return err
	}

	limits := plan.LimitsFromConfig(cfg.Plans)
	localAdmin := auth.LocalAdminInfo(cfg.Admin.Email)
	localAdmin.Credits = limits.Ceiling(plan.Enterprise)

	deviceStore := device.NewStore(redis.Client, cfg.Device.TTL)
	deviceSvc := device.NewService(deviceStore, device.NewHashedCode(cfg.Activation.CodeHash))
	deviceHandler := device.NewHandler(deviceSvc)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, limits,
		user.WithCheckoutURL(cfg.Plans.CheckoutURL),
		user.WithLocalAdmin(localAdmin),
	)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis.Client,
		auth.WithDevices(deviceStore),
		auth.WithLocalAdmin(
			auth.NewLocalAdmin(cfg.Admin.Usernames, cfg.Admin.PasswordHash),
			localAdmin,
		),
		auth.WithAdminEmail(cfg.Admin.Email),
		auth.WithLogger(logger),
	)
	authHandler := auth.NewHandler(authSvc)

	systemLog := admin.NewSystemLog(redis.Client, admin.DefaultLogCapacity)
	userHandler := user.NewHandler(userSvc, systemLog, authSvc, logger)

	var featureStore feature.Store = feature.NewMemoryStore()
	if cfg.Features.Persist {
		featureStore = feature.NewRedisStore(redis.Client)
	}
	featureSvc := feature.NewService(featureStore)
	featureHandler := feature.NewHandler(featureSvc)

	guard := entitlement.NewGuard(featureSvc)
	navHandler := entitlement.NewHandler(guard, deviceSvc)

	reconciler, err := webhook.NewReconciler(userSvc, logger)
	if err != nil {
		return err
	}
	webhookHandler := webhook.NewHandler(reconciler, cfg.Webhook, logger)

	models, closeModels := buildModels(ctx, cfg.Gemini, logger)
	defer closeModels()

	poller := generation.NewPoller(models.Video, cfg.Video)
	videoJobs := generation.NewVideoJobs(
		poller,
		models.Video,
		mediaStore,
		cfg.Video.JobRetention,
		logger,
	)
	generationSvc := generation.NewService(
		userSvc,
		featureSvc,
		models,
		videoJobs,
		cfg.Plans.CheckoutURL,
		logger,
	)
	generationHandler := generation.NewHandler(generationSvc, logger)

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if s3, ok := mediaStore.(*media.S3Store); ok {
		deps = append(deps, health.Dependency{Name: "media", Checker: s3})
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Users:      userSvc,
		Features:   featureSvc,
		Log:        systemLog,
		Logger:     logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(metrics.Middleware)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.DeviceID(cfg.Device.Header))

	healthHandler.RegisterRoutes(router)
	webhookHandler.RegisterRoutes(router)

	router.Handle("/metrics", metrics.Handler())
	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	if local, ok := mediaStore.(*media.LocalStore); ok {
		mountMedia(router, cfg.Media.PublicBaseURL, local.Dir())
	}

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		deviceHandler.RegisterRoutes(r)
		navHandler.RegisterRoutes(r, optionalAuth)
		featureHandler.RegisterRoutes(r, optionalAuth)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)

		generationHandler.RegisterRoutes(r,
			authenticator,
			middleware.RequireActivation(deviceSvc),
			middleware.PlanRateLimiter(redis.Client, middleware.DefaultPlanLimits),
		)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		videoJobs.Run(gctx)
		return nil
	})

	g.Go(func() error {
		worker.Every(gctx, logger, worker.Task{
			Name:     "purge_refresh_tokens",
			Interval: tokenPurgeInterval,
			Run: func(ctx context.Context) error {
				n, err := authSvc.PurgeExpiredTokens(ctx)
				if err == nil && n > 0 {
					logger.Info("purged expired refresh tokens", "count", n)
				}
				return err
			},
		})
		return nil
	})

	if cfg.Plans.DailyReset {
		g.Go(func() error {
			worker.Every(gctx, logger, worker.Task{
				Name:     "reset_credits",
				Interval: cfg.Plans.ResetInterval,
				Run: func(ctx context.Context) error {
					n, err := userSvc.ResetAllCredits(ctx)
					if err == nil {
						logger.Info("credits reset to plan ceilings", "users", n)
					}
					return err
				},
			})
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
			logger.Error("server shutdown error", "error", err)
		}

		jobsCtx, cancelJobs := context.WithTimeout(shutdownCtx, jobShutdownDeadline)
		defer cancelJobs()
		if err := videoJobs.Shutdown(jobsCtx); err != nil {
			logger.Error("video jobs shutdown error", "error", err)
		}

		if telemetry != nil {
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("application stopped")
	return nil
}

// buildModels wires Gemini and Veo. Without an API key every tool answers
// with an upstream error instead of failing startup.
func buildModels(
	ctx context.Context,
	cfg config.GeminiConfig,
	logger *slog.Logger,
) (generation.Models, func()) {
	unconfigured := generation.Unconfigured{}
	models := generation.Models{
		Chat:  unconfigured,
		Image: unconfigured,
		Text:  unconfigured,
		Video: unconfigured,
	}
	closeFn := func() {}

	gemini, err := generation.NewGemini(ctx, cfg)
	switch {
	case errors.Is(err, generation.ErrNotConfigured):
		logger.Warn("gemini api key missing, generation tools disabled")
		return models, closeFn
	case err != nil:
		logger.Error("gemini client failed", "error", err)
		return models, closeFn
	}

	models.Chat = gemini
	models.Image = gemini
	models.Text = gemini
	closeFn = func() {
		if err := gemini.Close(); err != nil {
			logger.Error("gemini close error", "error", err)
		}
	}

	veo, err := generation.NewVeo(ctx, cfg)
	if err != nil {
		logger.Error("veo client failed", "error", err)
		return models, closeFn
	}
	models.Video = veo

	return models, closeFn
}

func mountMedia(r chi.Router, base, dir string) {
	if !strings.HasPrefix(base, "/") {
		return
	}
	base = strings.TrimRight(base, "/")
	fileServer := http.StripPrefix(base, http.FileServer(http.Dir(dir)))
	r.Get(base+"/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	JWT        JWTConfig        `koanf:"jwt"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	CORS       CORSConfig       `koanf:"cors"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
	Plans      PlansConfig      `koanf:"plans"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Activation ActivationConfig `koanf:"activation"`
	Admin      AdminConfig      `koanf:"admin"`
	Device     DeviceConfig     `koanf:"device"`
	Features   FeaturesConfig   `koanf:"features"`
	Gemini     GeminiConfig     `koanf:"gemini"`
	Video      VideoConfig      `koanf:"video"`
	Media      MediaConfig      `koanf:"media"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// PlansConfig holds the credit ceiling for each plan and where users go to buy one.
type PlansConfig struct {
	FreeCredits       int           `koanf:"free_credits"`
	ProCredits        int           `koanf:"pro_credits"`
	EnterpriseCredits int           `koanf:"enterprise_credits"`
	CheckoutURL       string        `koanf:"checkout_url"`
	DailyReset        bool          `koanf:"daily_reset"`
	ResetInterval     time.Duration `koanf:"reset_interval"`
}

type WebhookConfig struct {
	Secret          string `koanf:"secret"`
	SignatureHeader string `koanf:"signature_header"`
	MaxBodyBytes    int64  `koanf:"max_body_bytes"`
}

// ActivationConfig holds the argon2id hash of the shared device activation code.
type ActivationConfig struct {
	CodeHash string `koanf:"code_hash"`
}

type AdminConfig struct {
	Usernames    []string `koanf:"usernames"`
	PasswordHash string   `koanf:"password_hash"`
	Email        string   `koanf:"email"`
}

type DeviceConfig struct {
	Header string        `koanf:"header"`
	TTL    time.Duration `koanf:"ttl"`
}

type FeaturesConfig struct {
	Persist bool `koanf:"persist"`
}

type GeminiConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	ChatModel         string        `koanf:"chat_model"`
	TextModel         string        `koanf:"text_model"`
	ImageModel        string        `koanf:"image_model"`
	ImageHDModel      string        `koanf:"image_hd_model"`
	VideoModel        string        `koanf:"video_model"`
	SystemInstruction string        `koanf:"system_instruction"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

type VideoConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	Deadline     time.Duration `koanf:"deadline"`
	MaxAttempts  int           `koanf:"max_attempts"`
	JobRetention time.Duration `koanf:"job_retention"`
}

type MediaConfig struct {
	Driver        string        `koanf:"driver"`
	LocalDir      string        `koanf:"local_dir"`
	PublicBaseURL string        `koanf:"public_base_url"`
	S3            S3Config      `koanf:"s3"`
	PresignTTL    time.Duration `koanf:"presign_ttl"`
}

type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "NexusAI",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "120s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       false,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "nexusai",
		"jwt.audience":             "nexusai-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Device-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "nexusai",

		"plans.free_credits":       5,
		"plans.pro_credits":        100,
		"plans.enterprise_credits": 100,
		"plans.daily_reset":        false,
		"plans.reset_interval":     "24h",

		"webhook.signature_header": "X-Webhook-Signature",
		"webhook.max_body_bytes":   1 << 20,

		"admin.usernames": []string{"admin", "administrador"},
		"admin.email":     "admin@nexus.ai",

		"device.header": "X-Device-ID",
		"device.ttl":    "0s",

		"features.persist": false,

		"gemini.base_url":       "https://generativelanguage.googleapis.com/",
		"gemini.chat_model":     "gemini-2.5-flash",
		"gemini.text_model":     "gemini-2.5-flash",
		"gemini.image_model":    "gemini-2.5-flash-image",
		"gemini.image_hd_model": "gemini-3-pro-image-preview",
		"gemini.video_model":    "veo-3.1-fast-generate-preview",
		"gemini.system_instruction": "You are NexusAI, a highly advanced creative assistant. " +
			"You help users generate ideas, code, text and artistic concepts. " +
			"Keep answers concise, intelligent and useful.",
		"gemini.request_timeout": "60s",

		"video.poll_interval": "5s",
		"video.deadline":      "10m",
		"video.max_attempts":  120,
		"video.job_retention": "1h",

		"media.driver":          "local",
		"media.local_dir":       "data/media",
		"media.public_base_url": "/media",
		"media.presign_ttl":     "1h",
		"media.s3.region":       "us-east-1",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"PLAN_FREE_CREDITS":           "plans.free_credits",
	"PLAN_PRO_CREDITS":            "plans.pro_credits",
	"PLAN_ENTERPRISE_CREDITS":     "plans.enterprise_credits",
	"PLAN_CHECKOUT_URL":           "plans.checkout_url",
	"PLAN_DAILY_RESET":            "plans.daily_reset",
	"WEBHOOK_SECRET":              "webhook.secret",
	"WEBHOOK_SIGNATURE_HEADER":    "webhook.signature_header",
	"ACTIVATION_CODE_HASH":        "activation.code_hash",
	"ADMIN_PASSWORD_HASH":         "admin.password_hash",
	"ADMIN_EMAIL":                 "admin.email",
	"FEATURES_PERSIST":            "features.persist",
	"GEMINI_API_KEY":              "gemini.api_key",
	"API_KEY":                     "gemini.api_key",
	"GEMINI_BASE_URL":             "gemini.base_url",
	"VIDEO_POLL_INTERVAL":         "video.poll_interval",
	"VIDEO_DEADLINE":              "video.deadline",
	"VIDEO_MAX_ATTEMPTS":          "video.max_attempts",
	"MEDIA_DRIVER":                "media.driver",
	"MEDIA_LOCAL_DIR":             "media.local_dir",
	"MEDIA_PUBLIC_BASE_URL":       "media.public_base_url",
	"S3_BUCKET":                   "media.s3.bucket",
	"S3_REGION":                   "media.s3.region",
	"S3_ENDPOINT":                 "media.s3.endpoint",
	"S3_ACCESS_KEY_ID":            "media.s3.access_key_id",
	"S3_SECRET_ACCESS_KEY":        "media.s3.secret_access_key",
	"S3_USE_PATH_STYLE":           "media.s3.use_path_style",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Plans.FreeCredits < 0 || c.Plans.ProCredits < 0 ||
		c.Plans.EnterpriseCredits < 0 {
		return fmt.Errorf("plan credit ceilings must not be negative")
	}

	if c.Video.PollInterval <= 0 {
		return fmt.Errorf("video.poll_interval must be positive")
	}

	if c.Video.Deadline <= 0 {
		return fmt.Errorf("video.deadline must be positive")
	}

	if c.Video.MaxAttempts <= 0 {
		return fmt.Errorf("video.max_attempts must be positive")
	}

	switch c.Media.Driver {
	case "local":
		if c.Media.LocalDir == "" {
			return fmt.Errorf("media.local_dir is required for the local driver")
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown media driver %q", c.Media.Driver)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

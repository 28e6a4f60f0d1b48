package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/carevia/foundation/internal/guard"
)

// adminActionPath is the prefix of the admin form routes registered by
// handler.AdminHandler.
const adminActionPath = "/admin/"

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Public base URL of the site
	BaseURL string

	// Directory holding the static site (index.html, login.html, admin assets)
	StaticDir string

	// Honor X-Forwarded-For / X-Forwarded-Proto from a reverse proxy
	TrustProxy bool

	// Access control
	LoginPath      string        // Where the route guard sends unauthenticated clients
	AdminPath      string        // Where a successful login lands
	ProtectedPaths []string      // Path prefixes the route guard protects
	SessionTTL     time.Duration // Session marker lifetime

	// Identity provider: "supabase" or "static"
	IdentityProvider string
	SupabaseURL      string
	SupabaseAnonKey  string
	IdentityTimeout  time.Duration
	IdentityRetries  int

	// Static provider (development)
	AdminEmail        string
	AdminPasswordHash string

	// Shared in-flight login guard; in-process when empty
	RedisURL    string
	InflightTTL time.Duration

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string
	LocalStorageURL  string

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// Contact messages stored per address per hour
	ContactHourlyLimit int

	// Contact notifications; disabled when SMTPHost is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	NotifyEmails []string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// Tracing; disabled when the endpoint is empty
	OTLPEndpoint    string
	OTELSampleRatio float64
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		StaticDir:  getEnv("STATIC_DIR", "./web"),
		TrustProxy: getEnvBool("TRUST_PROXY", false),

		LoginPath:      getEnv("LOGIN_PATH", "/login.html"),
		AdminPath:      getEnv("ADMIN_PATH", "/admin.html"),
		ProtectedPaths: getEnvList("PROTECTED_PATHS", []string{"/admin"}),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),

		IdentityProvider: getEnv("IDENTITY_PROVIDER", "supabase"),
		SupabaseURL:      getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:  getEnv("SUPABASE_ANON_KEY", ""),
		IdentityTimeout:  getEnvDuration("IDENTITY_TIMEOUT", 10*time.Second),
		IdentityRetries:  getEnvInt("IDENTITY_RETRIES", 2),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		InflightTTL: getEnvDuration("INFLIGHT_TTL", 30*time.Second),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		ContactHourlyLimit: getEnvInt("CONTACT_HOURLY_LIMIT", 5),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		NotifyEmails: getEnvList("NOTIFY_EMAILS", nil),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got: %s", cfg.SessionTTL)
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") || !strings.HasPrefix(cfg.AdminPath, "/") {
		return nil, fmt.Errorf("LOGIN_PATH and ADMIN_PATH must be absolute paths")
	}
	gate := guard.New(cfg.ProtectedPaths, cfg.LoginPath)
	if gate.Protects(cfg.LoginPath) {
		return nil, fmt.Errorf("LOGIN_PATH %s must not be under a protected prefix", cfg.LoginPath)
	}
	for _, p := range []string{cfg.AdminPath, adminActionPath} {
		if !gate.Protects(p) {
			return nil, fmt.Errorf("PROTECTED_PATHS %v must cover admin path %s", cfg.ProtectedPaths, p)
		}
	}

	// Validate identity provider configuration
	switch cfg.IdentityProvider {
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required when IDENTITY_PROVIDER is 'supabase'")
		}
	case "static":
		if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required when IDENTITY_PROVIDER is 'static'")
		}
		if cfg.Env == "production" {
			return nil, fmt.Errorf("IDENTITY_PROVIDER 'static' is not allowed in production")
		}
	default:
		return nil, fmt.Errorf("IDENTITY_PROVIDER must be either 'supabase' or 'static', got: %s", cfg.IdentityProvider)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2PublicURL == "" {
			return nil, fmt.Errorf("R2_PUBLIC_URL is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if cfg.SMTPHost != "" && len(cfg.NotifyEmails) == 0 {
		return nil, fmt.Errorf("NOTIFY_EMAILS is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// IsSecureContext reports whether the site is served over HTTPS.
func (c *Config) IsSecureContext() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

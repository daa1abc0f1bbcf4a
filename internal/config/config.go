// Package config provides centralized configuration management for the
// webcam recorder service. Configuration is loaded from environment
// variables with sensible defaults. Required configuration that is missing
// will cause the application to fail fast with helpful error messages.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Port          int
	MaxUploadSize int64 // Maximum upload file size in bytes

	// Rate limiting (0 disables)
	RateLimit float64 // Requests per second per IP
	RateBurst int     // Maximum burst size per IP

	// Authentication configuration. AuthBackend selects the token
	// verifier: "oidc" validates ID tokens against an external issuer,
	// "jwt" validates locally-issued HS256 tokens.
	AuthBackend  string
	OIDCIssuer   string
	OIDCClientID string
	JWTSecret    string

	// Storage configuration. StorageBackend selects the object store:
	// "s3" (AWS or any S3-compatible endpoint), "minio", or "memory"
	// (development only, nothing survives a restart).
	StorageBackend string
	SignedURLTTL   time.Duration // Validity window for signed read URLs

	// S3 backend settings
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // Custom endpoint for self-hosted S3
	S3AccessKeyID     string
	S3SecretAccessKey string

	// MinIO backend settings
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Default values
const (
	DefaultPort           = 3000
	DefaultMaxUploadSize  = int64(100 * 1024 * 1024) // 100MB
	DefaultRateLimit      = float64(10)              // 10 requests/sec per IP
	DefaultRateBurst      = 20
	DefaultAuthBackend    = "oidc"
	DefaultStorageBackend = "s3"
	DefaultSignedURLTTL   = 180 * time.Minute
	DefaultS3Region       = "us-east-1"
)

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first if present, so local
// development does not need exported variables. Returns an error if
// validation fails.
func Load() (*Config, error) {
	return LoadWithPort(0)
}

// LoadWithPort is Load with a flag-provided port override. A zero port
// means no override.
func LoadWithPort(port int) (*Config, error) {
	// Missing .env is the normal production case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           DefaultPort,
		MaxUploadSize:  DefaultMaxUploadSize,
		RateLimit:      DefaultRateLimit,
		RateBurst:      DefaultRateBurst,
		AuthBackend:    DefaultAuthBackend,
		StorageBackend: DefaultStorageBackend,
		SignedURLTTL:   DefaultSignedURLTTL,
		S3Region:       DefaultS3Region,
	}

	var errs ValidationErrors

	cfg.Port = getEnvInt("WEBCAM_PORT", cfg.Port, &errs)
	if port != 0 {
		cfg.Port = port
	}
	cfg.MaxUploadSize = getEnvInt64("WEBCAM_MAX_UPLOAD_SIZE", cfg.MaxUploadSize, &errs)
	cfg.RateLimit = getEnvFloat("WEBCAM_RATE_LIMIT", cfg.RateLimit, &errs)
	cfg.RateBurst = getEnvInt("WEBCAM_RATE_BURST", cfg.RateBurst, &errs)

	cfg.AuthBackend = getEnv("WEBCAM_AUTH_BACKEND", cfg.AuthBackend)
	cfg.OIDCIssuer = getEnv("WEBCAM_OIDC_ISSUER", "")
	cfg.OIDCClientID = getEnv("WEBCAM_OIDC_CLIENT_ID", "")
	cfg.JWTSecret = getEnv("WEBCAM_JWT_SECRET", "")

	cfg.StorageBackend = getEnv("WEBCAM_STORAGE_BACKEND", cfg.StorageBackend)
	cfg.SignedURLTTL = getEnvDuration("WEBCAM_SIGNED_URL_TTL", cfg.SignedURLTTL, &errs)

	cfg.S3Bucket = getEnv("WEBCAM_S3_BUCKET", "")
	cfg.S3Region = getEnv("WEBCAM_S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("WEBCAM_S3_ENDPOINT", "")
	cfg.S3AccessKeyID = getEnv("WEBCAM_S3_ACCESS_KEY_ID", "")
	cfg.S3SecretAccessKey = getEnv("WEBCAM_S3_SECRET_ACCESS_KEY", "")

	cfg.MinioEndpoint = getEnv("WEBCAM_MINIO_ENDPOINT", "")
	cfg.MinioAccessKey = getEnv("WEBCAM_MINIO_ACCESS_KEY", "")
	cfg.MinioSecretKey = getEnv("WEBCAM_MINIO_SECRET_KEY", "")
	cfg.MinioBucket = getEnv("WEBCAM_MINIO_BUCKET", "")
	cfg.MinioUseSSL = getEnvBool("WEBCAM_MINIO_USE_SSL", false, &errs)

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func (c *Config) validate() ValidationErrors {
	var errs ValidationErrors

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ValidationError{"WEBCAM_PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Port)})
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, ValidationError{"WEBCAM_MAX_UPLOAD_SIZE", "must be positive"})
	}
	if c.SignedURLTTL <= 0 {
		errs = append(errs, ValidationError{"WEBCAM_SIGNED_URL_TTL", "must be positive"})
	}

	switch c.AuthBackend {
	case "oidc":
		if c.OIDCIssuer == "" {
			errs = append(errs, ValidationError{"WEBCAM_OIDC_ISSUER", "required when WEBCAM_AUTH_BACKEND=oidc"})
		}
		if c.OIDCClientID == "" {
			errs = append(errs, ValidationError{"WEBCAM_OIDC_CLIENT_ID", "required when WEBCAM_AUTH_BACKEND=oidc"})
		}
	case "jwt":
		if len(c.JWTSecret) < 32 {
			errs = append(errs, ValidationError{"WEBCAM_JWT_SECRET", "must be at least 32 characters when WEBCAM_AUTH_BACKEND=jwt"})
		}
	default:
		errs = append(errs, ValidationError{"WEBCAM_AUTH_BACKEND", fmt.Sprintf("must be \"oidc\" or \"jwt\", got %q", c.AuthBackend)})
	}

	switch c.StorageBackend {
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, ValidationError{"WEBCAM_S3_BUCKET", "required when WEBCAM_STORAGE_BACKEND=s3"})
		}
	case "minio":
		if c.MinioEndpoint == "" {
			errs = append(errs, ValidationError{"WEBCAM_MINIO_ENDPOINT", "required when WEBCAM_STORAGE_BACKEND=minio"})
		}
		if c.MinioBucket == "" {
			errs = append(errs, ValidationError{"WEBCAM_MINIO_BUCKET", "required when WEBCAM_STORAGE_BACKEND=minio"})
		}
	case "memory":
		// Development only, nothing to validate.
	default:
		errs = append(errs, ValidationError{"WEBCAM_STORAGE_BACKEND", fmt.Sprintf("must be \"s3\", \"minio\" or \"memory\", got %q", c.StorageBackend)})
	}

	return errs
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *ValidationErrors) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, ValidationError{key, fmt.Sprintf("must be an integer, got %q", v)})
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64, errs *ValidationErrors) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, ValidationError{key, fmt.Sprintf("must be an integer, got %q", v)})
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *ValidationErrors) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, ValidationError{key, fmt.Sprintf("must be a number, got %q", v)})
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool, errs *ValidationErrors) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, ValidationError{key, fmt.Sprintf("must be a boolean, got %q", v)})
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *ValidationErrors) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, ValidationError{key, fmt.Sprintf("must be a duration (e.g. \"180m\"), got %q", v)})
		return fallback
	}
	return d
}

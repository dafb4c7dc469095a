package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "kycflow/pkg/platform/strings"
)

const (
	// DevJWTSigningKey is used when JWT_SIGNING_KEY is unset. Validate refuses it
	// outside development.
	DevJWTSigningKey = "dev-secret-key-change-in-production"

	defaultMaxUploadBytes = 5 << 20
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogFormat     string
	JWTSigningKey string
	TokenTTL      time.Duration
	DatabaseURL   string

	Redis     RedisConfig
	Blob      BlobConfig
	Kafka     KafkaConfig
	Workflow  WorkflowConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

// RedisConfig configures the shared go-redis client. Empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BlobConfig selects the document blob backend. S3 wins when a bucket is set.
type BlobConfig struct {
	UploadDir string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
}

// KafkaConfig configures the audit publisher. No brokers means in-memory audit.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// WorkflowConfig holds the onboarding policy knobs.
type WorkflowConfig struct {
	MaxAttempts         int
	MaxUploadBytes      int64
	PhotoMatchThreshold int
}

// RateLimitConfig throttles the unauthenticated auth endpoints per client IP.
// A zero limit disables throttling.
type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

// AdminConfig seeds one reviewer account at startup when all fields are set.
type AdminConfig struct {
	Email    string
	Mobile   string
	Password string
}

// Enabled reports whether an admin account should be seeded.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Mobile != "" && a.Password != ""
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []error

	tokenTTL, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	errs = append(errs, err)
	maxAttempts, err := intEnv("MAX_ATTEMPTS", 3)
	errs = append(errs, err)
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	errs = append(errs, err)
	threshold, err := intEnv("PHOTO_MATCH_THRESHOLD", 60)
	errs = append(errs, err)
	poolSize, err := intEnv("REDIS_POOL_SIZE", 10)
	errs = append(errs, err)
	authRequests, err := intEnv("RATE_LIMIT_AUTH_REQUESTS", 20)
	errs = append(errs, err)
	authWindow, err := durationEnv("RATE_LIMIT_AUTH_WINDOW", time.Minute)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}

	cfg := Server{
		Addr:          stringEnv("KYC_ADDR", ":8080"),
		Environment:   stringEnv("ENVIRONMENT", "development"),
		LogFormat:     stringEnv("LOG_FORMAT", "json"),
		JWTSigningKey: stringEnv("JWT_SIGNING_KEY", DevJWTSigningKey),
		TokenTTL:      tokenTTL,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     poolSize,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Blob: BlobConfig{
			UploadDir:         stringEnv("UPLOAD_DIR", "uploads"),
			S3Bucket:          os.Getenv("S3_BUCKET"),
			S3Region:          stringEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        os.Getenv("S3_ENDPOINT"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			S3UsePathStyle:    os.Getenv("S3_USE_PATH_STYLE") == "true",
		},
		Kafka: KafkaConfig{
			Brokers:    platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: stringEnv("KAFKA_AUDIT_TOPIC", "kyc.audit"),
		},
		Workflow: WorkflowConfig{
			MaxAttempts:         maxAttempts,
			MaxUploadBytes:      int64(maxUpload),
			PhotoMatchThreshold: threshold,
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Mobile:   os.Getenv("ADMIN_MOBILE"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			AuthRequests: authRequests,
			AuthWindow:   authWindow,
		},
	}
	return cfg, cfg.Validate()
}

// IsProduction reports whether the service runs with production safeguards.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// Validate rejects configurations that are unsafe or nonsensical.
func (s Server) Validate() error {
	var errs []error
	if s.IsProduction() && s.JWTSigningKey == DevJWTSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if s.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if s.Workflow.MaxAttempts < 1 {
		errs = append(errs, errors.New("MAX_ATTEMPTS must be at least 1"))
	}
	if s.Workflow.MaxUploadBytes < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if s.Workflow.PhotoMatchThreshold < 0 || s.Workflow.PhotoMatchThreshold > 100 {
		errs = append(errs, errors.New("PHOTO_MATCH_THRESHOLD must be within 0..100"))
	}
	if s.RateLimit.AuthRequests > 0 && s.RateLimit.AuthWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_AUTH_WINDOW must be positive"))
	}
	if s.LogFormat != "json" && s.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or text", s.LogFormat))
	}
	return errors.Join(errs...)
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Blob backends understood by Load.
const (
	BlobBackendMinIO = "minio"
	BlobBackendS3    = "s3"
	BlobBackendLocal = "local"
)

// MaxDownloadURLTTL is the longest lifetime S3 and MinIO accept for a presigned link.
const MaxDownloadURLTTL = 7 * 24 * time.Hour

// Config aggregates runtime configuration for the taskhub API.
type Config struct {
	Server      ServerConfig
	Postgres    PostgresConfig
	Blob        BlobConfig
	Attachments AttachmentsConfig
	Metrics     MetricsConfig
	Log         LogConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// BlobConfig selects and configures the attachment content store.
type BlobConfig struct {
	Backend string
	MinIO   MinIOConfig
	S3      S3Config
	Local   LocalConfig
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// S3Config carries AWS S3 (or S3-compatible) settings.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// LocalConfig points the filesystem backend at a root directory.
type LocalConfig struct {
	Root string
}

// AttachmentsConfig bounds uploads and listings.
type AttachmentsConfig struct {
	MaxUploadBytes  int64
	DefaultPageSize int
	MaxPageSize     int
	DownloadURLTTL  time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("TASKHUB_API_HOST", "0.0.0.0"),
			Port:         getInt("TASKHUB_API_PORT", 8080),
			ReadTimeout:  getDuration("TASKHUB_API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("TASKHUB_API_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("TASKHUB_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:        getString("POSTGRES_HOST", "localhost"),
			Port:        getInt("POSTGRES_PORT", 5432),
			User:        getString("POSTGRES_USER", "taskhub_app"),
			Password:    getString("POSTGRES_PASSWORD", "change-me"),
			Database:    getString("POSTGRES_DB", "taskhub"),
			SSLMode:     strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			MaxConns:    int32(getInt("POSTGRES_MAX_CONNS", 10)),
			AutoMigrate: getBool("POSTGRES_AUTO_MIGRATE", false),
		},
		Blob: BlobConfig{
			Backend: strings.ToLower(getString("BLOB_BACKEND", BlobBackendMinIO)),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "taskhub"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "taskhub-attachments"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
			S3: S3Config{
				Region:    getString("S3_REGION", "us-east-1"),
				Bucket:    getString("S3_BUCKET", "taskhub-attachments"),
				AccessKey: getString("S3_ACCESS_KEY", ""),
				SecretKey: getString("S3_SECRET_KEY", ""),
				Endpoint:  getString("S3_ENDPOINT", ""),
			},
			Local: LocalConfig{
				Root: getString("BLOB_LOCAL_ROOT", "./data/attachments"),
			},
		},
		Attachments: AttachmentsConfig{
			MaxUploadBytes:  getInt64("ATTACHMENTS_MAX_UPLOAD_BYTES", 50*1024*1024),
			DefaultPageSize: getInt("ATTACHMENTS_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getInt("ATTACHMENTS_MAX_PAGE_SIZE", 100),
			DownloadURLTTL:  getDuration("ATTACHMENTS_DOWNLOAD_URL_TTL", 15*time.Minute),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("TASKHUB_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level: strings.ToLower(getString("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch c.Blob.Backend {
	case BlobBackendMinIO, BlobBackendS3, BlobBackendLocal:
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.Blob.Backend)
	}
	if c.Attachments.MaxUploadBytes <= 0 {
		return fmt.Errorf("ATTACHMENTS_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Attachments.DefaultPageSize <= 0 || c.Attachments.MaxPageSize <= 0 {
		return fmt.Errorf("attachment page sizes must be positive")
	}
	if c.Attachments.DefaultPageSize > c.Attachments.MaxPageSize {
		return fmt.Errorf("ATTACHMENTS_DEFAULT_PAGE_SIZE exceeds ATTACHMENTS_MAX_PAGE_SIZE")
	}
	if c.Attachments.DownloadURLTTL <= 0 || c.Attachments.DownloadURLTTL > MaxDownloadURLTTL {
		return fmt.Errorf("ATTACHMENTS_DOWNLOAD_URL_TTL must be between 1s and %s", MaxDownloadURLTTL)
	}
	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNS must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SinkNone      = "none"
	SinkPathstore = "pathstore"
	SinkS3        = "s3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Result persistence
	Sink string

	PathstoreURL    string
	PathstoreAPIKey string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PathStyle       bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Source fetch
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	FetchMaxBytes    int64
	FetchUserAgent   string

	// Job state
	JobTTL time.Duration
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:             "8090",
		Sink:             SinkNone,
		PathstoreURL:     "http://localhost:8080",
		S3Region:         "us-east-1",
		S3Prefix:         "reports/",
		WorkerCount:      4,
		MaxQueueSize:     100,
		MaxUploadBytes:   10485760, // 10MB
		FetchTimeout:     30 * time.Second,
		FetchMaxAttempts: 3,
		FetchMaxBytes:    20971520, // 20MB
		FetchUserAgent:   "reportgest/1.0",
		JobTTL:           1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// REPORTGEST_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	return LoadWithFile(os.Getenv("REPORTGEST_CONFIG"))
}

// LoadWithFile is Load with an explicit config file path. An empty path
// skips the file.
func LoadWithFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return cfg, err
		}
		fc.apply(&cfg)
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)

	c.APIKey = envOr("REPORTGEST_API_KEY", c.APIKey)

	c.Sink = envOr("SINK", c.Sink)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)

	c.S3Bucket = envOr("S3_BUCKET", c.S3Bucket)
	c.S3Region = envOr("S3_REGION", c.S3Region)
	c.S3Endpoint = envOr("S3_ENDPOINT", c.S3Endpoint)
	c.S3Prefix = envOr("S3_PREFIX", c.S3Prefix)
	c.S3AccessKeyID = envOr("S3_ACCESS_KEY_ID", c.S3AccessKeyID)
	c.S3SecretAccessKey = envOr("S3_SECRET_ACCESS_KEY", c.S3SecretAccessKey)
	c.S3PathStyle = envBool("S3_PATH_STYLE", c.S3PathStyle)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	c.FetchTimeout = envDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.FetchMaxAttempts = envInt("FETCH_MAX_ATTEMPTS", c.FetchMaxAttempts)
	c.FetchMaxBytes = envInt64("FETCH_MAX_BYTES", c.FetchMaxBytes)
	c.FetchUserAgent = envOr("FETCH_USER_AGENT", c.FetchUserAgent)

	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
}

func (c *Config) normalize() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.FetchMaxAttempts <= 0 {
		c.FetchMaxAttempts = d.FetchMaxAttempts
	}
	if c.FetchMaxBytes <= 0 {
		c.FetchMaxBytes = d.FetchMaxBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.Sink == "" {
		c.Sink = SinkNone
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("REPORTGEST_API_KEY is required")
	}
	return c.ValidateSink()
}

// ValidateSink checks only the result sink settings.
func (c Config) ValidateSink() error {
	switch c.Sink {
	case SinkNone:
	case SinkPathstore:
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore sink")
		}
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore sink")
		}
	case SinkS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 sink")
		}
	default:
		return fmt.Errorf("unknown SINK %q (want none, pathstore or s3)", c.Sink)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

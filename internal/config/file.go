package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML config file schema. Zero values leave the
// corresponding setting untouched.
type FileConfig struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"apiKey"`
	Sink   string `yaml:"sink"`

	Pathstore struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"apiKey"`
	} `yaml:"pathstore"`

	S3 struct {
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		Prefix          string `yaml:"prefix"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
		PathStyle       *bool  `yaml:"pathStyle"`
	} `yaml:"s3"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queueSize"`
	} `yaml:"workers"`

	Fetch struct {
		Timeout     time.Duration `yaml:"timeout"`
		MaxAttempts int           `yaml:"maxAttempts"`
		MaxBytes    int64         `yaml:"maxBytes"`
		UserAgent   string        `yaml:"userAgent"`
	} `yaml:"fetch"`

	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	JobTTL         time.Duration `yaml:"jobTTL"`
}

// LoadFile reads and decodes a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	// An empty or comment-only file decodes to io.EOF.
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fc, nil
}

func (fc FileConfig) apply(c *Config) {
	setString(&c.Port, fc.Port)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.Sink, fc.Sink)

	setString(&c.PathstoreURL, fc.Pathstore.URL)
	setString(&c.PathstoreAPIKey, fc.Pathstore.APIKey)

	setString(&c.S3Bucket, fc.S3.Bucket)
	setString(&c.S3Region, fc.S3.Region)
	setString(&c.S3Endpoint, fc.S3.Endpoint)
	setString(&c.S3Prefix, fc.S3.Prefix)
	setString(&c.S3AccessKeyID, fc.S3.AccessKeyID)
	setString(&c.S3SecretAccessKey, fc.S3.SecretAccessKey)
	if fc.S3.PathStyle != nil {
		c.S3PathStyle = *fc.S3.PathStyle
	}

	if fc.Workers.Count != 0 {
		c.WorkerCount = fc.Workers.Count
	}
	if fc.Workers.QueueSize != 0 {
		c.MaxQueueSize = fc.Workers.QueueSize
	}

	if fc.Fetch.Timeout != 0 {
		c.FetchTimeout = fc.Fetch.Timeout
	}
	if fc.Fetch.MaxAttempts != 0 {
		c.FetchMaxAttempts = fc.Fetch.MaxAttempts
	}
	if fc.Fetch.MaxBytes != 0 {
		c.FetchMaxBytes = fc.Fetch.MaxBytes
	}
	setString(&c.FetchUserAgent, fc.Fetch.UserAgent)

	if fc.MaxUploadBytes != 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.JobTTL != 0 {
		c.JobTTL = fc.JobTTL
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

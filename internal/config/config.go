package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DIAG_SERVER_PORT.
const EnvPrefix = "DIAG"

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"READ_TIMEOUT"`
		WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT"`
		// MaxLimit caps the page size of list requests.
		MaxLimit       int      `yaml:"maxLimit" envconfig:"MAX_LIMIT"`
		MaxUploadBytes int64    `yaml:"maxUploadBytes" envconfig:"MAX_UPLOAD_BYTES"`
		CORSOrigins    []string `yaml:"corsOrigins" envconfig:"CORS_ORIGINS"`
		// ImportsPerMinute limits import requests per client IP.
		ImportsPerMinute int `yaml:"importsPerMinute" envconfig:"IMPORTS_PER_MINUTE"`
		// Development relaxes the security header checks for local runs.
		Development bool `yaml:"development"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Database struct {
		// Driver is one of mysql, postgres, sqlite.
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode" envconfig:"SSL_MODE"`
		// Path is the sqlite database file.
		Path string `yaml:"path"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey" envconfig:"ACCESS_KEY"`
		SecretKey  string        `yaml:"secretKey" envconfig:"SECRET_KEY"`
		BucketName string        `yaml:"bucketName" envconfig:"BUCKET_NAME"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL" envconfig:"USE_SSL"`
		LinkTTL    time.Duration `yaml:"linkTTL" envconfig:"LINK_TTL"`
	} `yaml:"minio"`

	Diagnostics struct {
		BaseURL   string        `yaml:"baseURL" envconfig:"BASE_URL"`
		APIKey    string        `yaml:"apiKey" envconfig:"API_KEY"`
		Timeout   time.Duration `yaml:"timeout"`
		ScanLimit int           `yaml:"scanLimit" envconfig:"SCAN_LIMIT"`
	} `yaml:"diagnostics"`

	Export struct {
		// MaxRows caps all-matching list requests.
		MaxRows int `yaml:"maxRows" envconfig:"MAX_ROWS"`
	} `yaml:"export"`

	Auth struct {
		// APIKeys maps operator name to API key.
		APIKeys map[string]string `yaml:"apiKeys" envconfig:"API_KEYS"`
	} `yaml:"auth"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 60 * time.Second
	c.Server.MaxLimit = 100
	c.Server.MaxUploadBytes = 50 << 20
	c.Server.ImportsPerMinute = 10
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Database.Driver = "sqlite"
	c.Database.Path = "diag.db"
	c.Database.SSLMode = "disable"
	c.Minio.Region = "us-east-1"
	c.Diagnostics.Timeout = 15 * time.Second
	c.Diagnostics.ScanLimit = 50
	c.Export.MaxRows = 10000
	return &c
}

// Load baca file config.yaml lalu override dari environment. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for %s", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return errors.New("minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	if c.Server.MaxLimit <= 0 || c.Export.MaxRows <= 0 {
		return errors.New("server.maxLimit and export.maxRows must be positive")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

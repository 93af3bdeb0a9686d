/*
 * Copyright 2025 SchemaVault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	TLS     TLSConfig      `yaml:"tls"`
	Upload  UploadConfig   `yaml:"upload"`
	Storage StorageConfig  `yaml:"storage"`
	Blob    BlobConfig     `yaml:"blob"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"`
}

// UploadConfig holds schema upload configuration
type UploadConfig struct {
	MaxSize int64 `yaml:"max_size"`
}

// StorageConfig holds metadata store configuration
type StorageConfig struct {
	Type     string                 `yaml:"type"` // "memory" or "database"
	Database *DatabaseStorageConfig `yaml:"database,omitempty"`
}

// DatabaseStorageConfig configures the relational metadata store
type DatabaseStorageConfig struct {
	Driver           string `yaml:"driver"`
	ConnectionString string `yaml:"connection_string"`
	MaxConnections   int    `yaml:"max_connections"`
	MaxIdleTime      int    `yaml:"max_idle_time"`
}

// BlobConfig holds schema blob storage configuration
type BlobConfig struct {
	Type     string `yaml:"type"` // "filesystem" or "memory"
	BasePath string `yaml:"base_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load loads configuration from an optional YAML file and environment
// variables. Environment variables take precedence over YAML values.
func Load(configFile string) (*Config, error) {
	cfg := getDefaultConfig()

	if err := loadFromYAML(cfg, configFile); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	loadFromEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getDefaultConfig returns a configuration with default values
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		TLS: TLSConfig{
			Enabled:    false,
			MinVersion: "1.3",
		},
		Upload: UploadConfig{
			MaxSize: 10 * 1024 * 1024, // 10MB
		},
		Storage: StorageConfig{
			Type: "memory",
		},
		Blob: BlobConfig{
			Type:     "filesystem",
			BasePath: "./storage",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadFromYAML loads configuration from a YAML file
func loadFromYAML(cfg *Config, configFile string) error {
	if configFile == "" {
		return nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config file %s: %w", configFile, err)
	}

	return nil
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(cfg *Config) {
	// Server configuration
	if val := getEnv("SCHEMAVAULT_SERVER_ADDRESS", ""); val != "" {
		cfg.Server.Address = val
	}
	if val := getDurationEnv("SCHEMAVAULT_READ_TIMEOUT", 0); val != 0 {
		cfg.Server.ReadTimeout = val
	}
	if val := getDurationEnv("SCHEMAVAULT_WRITE_TIMEOUT", 0); val != 0 {
		cfg.Server.WriteTimeout = val
	}
	if val := getDurationEnv("SCHEMAVAULT_IDLE_TIMEOUT", 0); val != 0 {
		cfg.Server.IdleTimeout = val
	}

	// TLS configuration
	if val := getBoolEnv("SCHEMAVAULT_TLS_ENABLED", cfg.TLS.Enabled); val != cfg.TLS.Enabled {
		cfg.TLS.Enabled = val
	}
	if val := getEnv("SCHEMAVAULT_TLS_CERT_FILE", ""); val != "" {
		cfg.TLS.CertFile = val
	}
	if val := getEnv("SCHEMAVAULT_TLS_KEY_FILE", ""); val != "" {
		cfg.TLS.KeyFile = val
	}
	if val := getEnv("SCHEMAVAULT_TLS_MIN_VERSION", ""); val != "" {
		cfg.TLS.MinVersion = val
	}

	// Upload configuration
	if val := getInt64Env("SCHEMAVAULT_UPLOAD_MAX_SIZE", 0); val != 0 {
		cfg.Upload.MaxSize = val
	}

	// Metadata storage configuration
	if val := getEnv("SCHEMAVAULT_STORAGE_TYPE", ""); val != "" {
		cfg.Storage.Type = val
	}
	if val := getEnv("SCHEMAVAULT_DATABASE_URL", ""); val != "" {
		if cfg.Storage.Database == nil {
			cfg.Storage.Database = &DatabaseStorageConfig{Driver: "postgres"}
		}
		cfg.Storage.Database.ConnectionString = val
	}
	if val := getInt64Env("SCHEMAVAULT_DATABASE_MAX_CONNECTIONS", 0); val != 0 {
		if cfg.Storage.Database == nil {
			cfg.Storage.Database = &DatabaseStorageConfig{Driver: "postgres"}
		}
		cfg.Storage.Database.MaxConnections = int(val)
	}

	// Blob storage configuration
	if val := getEnv("SCHEMAVAULT_BLOB_TYPE", ""); val != "" {
		cfg.Blob.Type = val
	}
	if val := getEnv("SCHEMAVAULT_BLOB_PATH", ""); val != "" {
		cfg.Blob.BasePath = val
	}

	// Logging configuration
	if val := getEnv("SCHEMAVAULT_LOG_LEVEL", ""); val != "" {
		cfg.Logging.Level = val
	}
	if val := getEnv("SCHEMAVAULT_LOG_FORMAT", ""); val != "" {
		cfg.Logging.Format = val
	}

	// Metrics configuration
	if getBoolEnv("SCHEMAVAULT_METRICS_ENABLED", false) {
		if cfg.Metrics == nil {
			cfg.Metrics = &MetricsConfig{}
		}
		cfg.Metrics.Enabled = true
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("TLS cert and key files are required when TLS is enabled")
	}

	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}

	switch strings.ToLower(c.Storage.Type) {
	case "", "memory":
	case "database":
		if c.Storage.Database == nil || c.Storage.Database.ConnectionString == "" {
			return fmt.Errorf("database storage requires a connection string")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch strings.ToLower(c.Blob.Type) {
	case "", "memory":
	case "filesystem":
		if c.Blob.BasePath == "" {
			return fmt.Errorf("filesystem blob storage requires a base path")
		}
	default:
		return fmt.Errorf("unsupported blob storage type: %s", c.Blob.Type)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

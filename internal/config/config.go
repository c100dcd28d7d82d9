// Package config loads server configuration from YAML and environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chainplan/chainplan/internal/blob"
	"github.com/chainplan/chainplan/internal/repository"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Blob   blob.Config  `yaml:"blob"`
	Log    LogConfig    `yaml:"log"`
	Ensure EnsureConfig `yaml:"ensure"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DBConfig selects the row store. Driver "sqlite" uses Path, driver
// "postgres" uses DSN.
type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// EnsureConfig selects the reuse policy of the ensure workflows.
// "first_created" is the default; "last_updated" keeps the legacy behavior.
type EnsureConfig struct {
	ReusePolicy string `yaml:"reuse_policy"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "chainplan.db",
		},
		Blob: blob.Config{
			Driver: blob.DriverFilesystem,
			Root:   "chainplan-blobs",
		},
		Log: LogConfig{
			Level: "info",
		},
		Ensure: EnsureConfig{
			ReusePolicy: "first_created",
		},
	}

	if path := os.Getenv("CHAINPLAN_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CHAINPLAN_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CHAINPLAN_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHAINPLAN_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("CHAINPLAN_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("CHAINPLAN_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv("CHAINPLAN_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if driver := os.Getenv("CHAINPLAN_BLOB_DRIVER"); driver != "" {
		cfg.Blob.Driver = blob.Driver(driver)
	}
	if root := os.Getenv("CHAINPLAN_BLOB_ROOT"); root != "" {
		cfg.Blob.Root = root
	}
	if bucket := os.Getenv("CHAINPLAN_BLOB_S3_BUCKET"); bucket != "" {
		cfg.Blob.S3.Bucket = bucket
	}
	if endpoint := os.Getenv("CHAINPLAN_BLOB_S3_ENDPOINT"); endpoint != "" {
		cfg.Blob.S3.Endpoint = endpoint
	}
	if level := os.Getenv("CHAINPLAN_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if policy := os.Getenv("CHAINPLAN_ENSURE_REUSE_POLICY"); policy != "" {
		cfg.Ensure.ReusePolicy = policy
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn required for postgres driver")
	}
	switch c.Ensure.ReusePolicy {
	case "first_created", "last_updated":
	default:
		return fmt.Errorf("unknown reuse policy %q", c.Ensure.ReusePolicy)
	}
	return nil
}

// ReusePolicy maps the configured ensure reuse policy to its enum value.
func (c Config) ReusePolicy() repository.ReusePolicy {
	if c.Ensure.ReusePolicy == "last_updated" {
		return repository.ReuseLastUpdated
	}
	return repository.ReuseFirstCreated
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by CONSOLE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	LogDev   bool   `yaml:"log_dev"`

	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir"`
	SnapshotName  string `yaml:"snapshot_name"`
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	RedisURL      string `yaml:"redis_url"`

	MeiliURL       string `yaml:"meili_url"`
	MeiliMasterKey string `yaml:"meili_master_key"`

	// S3-compatible document storage; links are disabled when S3Endpoint is empty
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3UseSSL       bool   `yaml:"s3_use_ssl"`
	LinkTTLSeconds int    `yaml:"link_ttl_seconds"`

	SeedDeadlineDays int `yaml:"seed_deadline_days"`
}

func defaults() Config {
	return Config{
		LogLevel:         "info",
		Backend:          BackendFile,
		DataDir:          "./data",
		SnapshotName:     "default",
		S3Bucket:         "documents",
		S3Region:         "us-east-1",
		LinkTTLSeconds:   900,
		SeedDeadlineDays: 30,
	}
}

// Load builds the configuration from defaults and the environment.
func Load() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile overlays a YAML file on the defaults; environment variables still
// take precedence over the file.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = getenv("CONSOLE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogDev = getenvBool("CONSOLE_LOG_DEV", cfg.LogDev)
	cfg.Backend = getenv("CONSOLE_BACKEND", cfg.Backend)
	cfg.DataDir = getenv("CONSOLE_DATA_DIR", cfg.DataDir)
	cfg.SnapshotName = getenv("CONSOLE_SNAPSHOT_NAME", cfg.SnapshotName)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = getenv("CONSOLE_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.MeiliURL = getenv("MEILI_URL", cfg.MeiliURL)
	cfg.MeiliMasterKey = getenv("MEILI_MASTER_KEY", cfg.MeiliMasterKey)
	cfg.S3Endpoint = getenv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getenv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getenv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Bucket = getenv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getenv("S3_REGION", cfg.S3Region)
	cfg.S3UseSSL = getenvBool("S3_USE_SSL", cfg.S3UseSSL)
	cfg.LinkTTLSeconds = getenvInt("CONSOLE_LINK_TTL_SECONDS", cfg.LinkTTLSeconds)
	cfg.SeedDeadlineDays = getenvInt("CONSOLE_SEED_DEADLINE_DAYS", cfg.SeedDeadlineDays)
}

// Validate checks the settings the selected backend depends on.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("file backend requires CONSOLE_DATA_DIR")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis backend requires REDIS_URL")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres backend requires DATABASE_URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if strings.TrimSpace(c.SnapshotName) == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	if c.LinkTTLSeconds <= 0 {
		return fmt.Errorf("link ttl must be positive, got %d", c.LinkTTLSeconds)
	}
	if c.SeedDeadlineDays <= 0 {
		return fmt.Errorf("seed deadline days must be positive, got %d", c.SeedDeadlineDays)
	}
	return nil
}

func (c Config) LinkTTL() time.Duration {
	return time.Duration(c.LinkTTLSeconds) * time.Second
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

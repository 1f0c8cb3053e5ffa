package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONSOLE_LOG_LEVEL", "CONSOLE_LOG_DEV", "CONSOLE_BACKEND", "CONSOLE_DATA_DIR", "CONSOLE_SNAPSHOT_NAME",
	"DATABASE_URL", "CONSOLE_MIGRATIONS_DIR", "REDIS_URL", "MEILI_URL", "MEILI_MASTER_KEY",
	"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_REGION", "S3_USE_SSL",
	"CONSOLE_LINK_TTL_SECONDS", "CONSOLE_SEED_DEADLINE_DAYS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "default", cfg.SnapshotName)
	assert.Equal(t, "documents", cfg.S3Bucket)
	assert.Equal(t, 15*time.Minute, cfg.LinkTTL())
	assert.Equal(t, 30, cfg.SeedDeadlineDays)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONSOLE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("CONSOLE_LOG_DEV", "true")
	t.Setenv("CONSOLE_SEED_DEADLINE_DAYS", "14")
	t.Setenv("CONSOLE_LINK_TTL_SECONDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.True(t, cfg.LogDev)
	assert.Equal(t, 14, cfg.SeedDeadlineDays)
	assert.Equal(t, 900, cfg.LinkTTLSeconds, "unparsable values keep the default")
	require.NoError(t, cfg.Validate())
}

func TestLoadFileOverlaysDefaultsAndEnvWins(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: postgres
database_url: postgres://file/console
snapshot_name: studio
s3_endpoint: localhost:9000
`), 0o644))
	t.Setenv("CONSOLE_SNAPSHOT_NAME", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://file/console", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.SnapshotName)
	assert.Equal(t, "localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "sqlite" }},
		{"redis without url", func(c *Config) { c.Backend = BackendRedis }},
		{"postgres without url", func(c *Config) { c.Backend = BackendPostgres }},
		{"file without dir", func(c *Config) { c.DataDir = " " }},
		{"empty snapshot name", func(c *Config) { c.SnapshotName = "" }},
		{"zero link ttl", func(c *Config) { c.LinkTTLSeconds = 0 }},
		{"negative seed deadline", func(c *Config) { c.SeedDeadlineDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := defaults()
	cfg.Backend = BackendMemory
	assert.NoError(t, cfg.Validate())
}

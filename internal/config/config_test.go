package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/blob"
	"github.com/chainplan/chainplan/internal/config"
	"github.com/chainplan/chainplan/internal/repository"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.DB.Driver)
	require.Equal(t, "chainplan.db", cfg.DB.Path)
	require.Equal(t, blob.DriverFilesystem, cfg.Blob.Driver)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, repository.ReuseFirstCreated, cfg.ReusePolicy())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  host: 127.0.0.1
  port: 9090
db:
  driver: postgres
  dsn: postgres://localhost/chainplan
blob:
  driver: memory
log:
  level: debug
ensure:
  reuse_policy: last_updated
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CHAINPLAN_CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.DB.Driver)
	require.Equal(t, blob.DriverMemory, cfg.Blob.Driver)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, repository.ReuseLastUpdated, cfg.ReusePolicy())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("CHAINPLAN_CONFIG_PATH", path)
	t.Setenv("CHAINPLAN_SERVER_PORT", "7070")
	t.Setenv("CHAINPLAN_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("CHAINPLAN_SERVER_PORT", "not-a-port")
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("CHAINPLAN_DB_DRIVER", "postgres")
	_, err := config.Load()
	require.Error(t, err)

	t.Setenv("CHAINPLAN_DB_DSN", "postgres://localhost/chainplan")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DB.Driver)
}

func TestLoad_RejectsUnknownReusePolicy(t *testing.T) {
	t.Setenv("CHAINPLAN_ENSURE_REUSE_POLICY", "newest")
	_, err := config.Load()
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.SeedDemo)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "civicops.db", cfg.Database.SQLitePath)
	assert.Equal(t, "civicops_session", cfg.Auth.CookieName)
	require.Len(t, cfg.Auth.Users, 4)
	assert.Equal(t, "rdc_manager", cfg.Auth.Users[2].Role)
	assert.Equal(t, 300, cfg.Task.RollupInterval)
	assert.Equal(t, "info", cfg.Log.GetLevel())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
  cors_origins:
    - https://ops.example.gov
storage:
  driver: postgres
database:
  host: db.internal
  dbname: schedules
auth:
  users:
    - username: ops
      password: ops
      role: admin
log:
  level: debug
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	t.Setenv("CIVICOPS_DATABASE_HOST", "db.override")

	cfg := Load(file)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://ops.example.gov"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "schedules", cfg.Database.DBName)
	assert.Equal(t, 5432, cfg.Database.Port)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "ops", cfg.Auth.Users[0].Username)
	assert.Equal(t, "debug", cfg.Log.GetLevel())
	assert.Equal(t, "stdout", cfg.Log.GetOutput())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3600, cfg.Task.OverdueInterval)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 2, cfg.Global.ShutdownTimeoutInSeconds)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Zero(t, cfg.Database.SchemaVersion)
	assert.True(t, cfg.StreakReset.Enabled)
	assert.Equal(t, DefaultStreakResetSchedule, cfg.StreakReset.Schedule)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.Tasks.CleanupInterval)
	assert.True(t, cfg.Covers.Enabled)
	assert.Empty(t, cfg.Covers.Dir)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/reading.db")
	t.Setenv("DATABASE_LOG_LEVEL", "silent")
	t.Setenv("SCHEMA_VERSION", "2")
	t.Setenv("STREAK_RESET_ENABLED", "false")
	t.Setenv("STREAK_RESET_SCHEDULE", "0 1 * * *")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("TASK_WORKERS", "4")
	t.Setenv("TASK_RELEASE_AFTER", "30s")
	t.Setenv("COVERS_DIR", "/tmp/covers")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/tmp/reading.db", cfg.Database.Path)
	assert.Equal(t, "silent", cfg.Database.LogLevel)
	assert.Equal(t, 2, cfg.Database.SchemaVersion)
	assert.False(t, cfg.StreakReset.Enabled)
	assert.Equal(t, "0 1 * * *", cfg.StreakReset.Schedule)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, 4, cfg.Tasks.Workers)
	assert.Equal(t, 30*time.Second, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, "/tmp/covers", cfg.Covers.Dir)
}

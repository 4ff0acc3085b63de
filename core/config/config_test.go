package config_test

import (
	"testing"

	"pim-sync/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "pim-sync", cfg.Storage.Bucket)
	assert.Equal(t, "mysql", cfg.Database.Driver)

	assert.Equal(t, "two-way-prompt", cfg.Sync.Mode)
	assert.True(t, cfg.Sync.SyncDeletes)
	assert.False(t, cfg.Sync.PromptOnDelete)
	assert.Equal(t, 120, cfg.Sync.ToleranceSeconds)
	assert.Equal(t, 30, cfg.Sync.WindowDaysPast)
	assert.Equal(t, 60, cfg.Sync.WindowDaysFuture)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_MODE", "one-way-local-to-remote")
	t.Setenv("SYNC_SYNC_DELETES", "false")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := config.LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "one-way-local-to-remote", cfg.Sync.Mode)
	assert.False(t, cfg.Sync.SyncDeletes)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

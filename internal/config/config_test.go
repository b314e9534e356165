package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Schedule.LookaheadDays)
	assert.Equal(t, 4, cfg.Schedule.Workers)
	assert.Equal(t, 30*time.Second, cfg.Schedule.GenerationTimeout)
	assert.Equal(t, time.Hour, cfg.Schedule.Interval)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
database:
  driver: memory
schedule:
  lookahead_days: 21
  interval: 15m
s3:
  bucket_name: exports
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SCHEDULE_WORKERS", "8")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 21, cfg.Schedule.LookaheadDays)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 8, cfg.Schedule.Workers)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

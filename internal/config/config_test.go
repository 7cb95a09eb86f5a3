package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultMaxMembers, cfg.Groups.DefaultMaxMembers)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, LockBackendMemory, cfg.Locks.Backend)
	assert.Equal(t, 10*time.Second, cfg.Locks.TTL)
	assert.Empty(t, cfg.Events.NATSURL)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.SummaryRefreshSchedule)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GROUP_DEFAULT_MAX_MEMBERS", "6")
	t.Setenv("LOCK_BACKEND", "REDIS")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("TASK_WORKERS", "4")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, 6, cfg.Groups.DefaultMaxMembers)
	assert.Equal(t, LockBackendRedis, cfg.Locks.Backend)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STUDYSHELF_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STUDYSHELF_TEST_DOTENV") })

	LoadDotEnv(path)

	assert.Equal(t, "from-file", os.Getenv("STUDYSHELF_TEST_DOTENV"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NotPanics(t, func() {
		LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	})
}

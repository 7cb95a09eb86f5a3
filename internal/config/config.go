package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LockBackend string

const (
	LockBackendMemory LockBackend = "memory" // In-process keyed mutex (default)
	LockBackendRedis  LockBackend = "redis"  // Redis lease, for multi-instance deployments
)

type (
	Config struct {
		HTTP
		Global
		Database
		Groups
		Auth
		Locks
		Events
		Tasks
		Scheduler
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver string // "sqlite" or "postgres"
		Path   string // SQLite file path
		DSN    string // PostgreSQL connection string
	}
	Groups struct {
		DefaultMaxMembers int
	}
	Auth struct {
		JWTSecret     string
		TokenDuration time.Duration
		BcryptCost    int
	}
	Locks struct {
		Backend   LockBackend
		RedisAddr string
		RedisDB   int
		TTL       time.Duration // Lease length for redis locks
		RetryWait time.Duration // Poll interval while waiting on a held lock
	}
	Events struct {
		NATSURL       string // Empty disables NATS publishing
		SubjectPrefix string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		SummaryRefreshEnabled  bool
		SummaryRefreshSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Log struct {
		Level  string
		Format string
	}
)

// LoadDotEnv reads a .env file into the process environment if one exists.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	v.SetDefault("group_default_max_members", DefaultMaxMembers)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_token_duration", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)

	// Lock defaults
	v.SetDefault("lock_backend", string(LockBackendMemory))
	v.SetDefault("lock_redis_addr", "localhost:6379")
	v.SetDefault("lock_redis_db", 0)
	v.SetDefault("lock_ttl", "10s")
	v.SetDefault("lock_retry_wait", "25ms")

	v.SetDefault("nats_url", "")
	v.SetDefault("nats_subject_prefix", "studyshelf")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("summary_refresh_enabled", true)
	v.SetDefault("summary_refresh_schedule", "0 3 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Groups: Groups{
			DefaultMaxMembers: v.GetInt("GROUP_DEFAULT_MAX_MEMBERS"),
		},
		Auth: Auth{
			JWTSecret:     v.GetString("AUTH_JWT_SECRET"),
			TokenDuration: v.GetDuration("AUTH_TOKEN_DURATION"),
			BcryptCost:    v.GetInt("AUTH_BCRYPT_COST"),
		},
		Locks: Locks{
			Backend:   LockBackend(strings.ToLower(v.GetString("LOCK_BACKEND"))),
			RedisAddr: v.GetString("LOCK_REDIS_ADDR"),
			RedisDB:   v.GetInt("LOCK_REDIS_DB"),
			TTL:       v.GetDuration("LOCK_TTL"),
			RetryWait: v.GetDuration("LOCK_RETRY_WAIT"),
		},
		Events: Events{
			NATSURL:       v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			SummaryRefreshEnabled:  v.GetBool("SUMMARY_REFRESH_ENABLED"),
			SummaryRefreshSchedule: v.GetString("SUMMARY_REFRESH_SCHEDULE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

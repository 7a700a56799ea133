package config

import (
	"time"

	"github.com/spf13/viper"
)

// DatabaseDriver selects the gorm dialector used for the main database.
type DatabaseDriver string

const (
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
	DatabaseDriverMySQL  DatabaseDriver = "mysql"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Auth
		Lending
		Log
		Tasks
		Audit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // sqlite file path
		DSN    string // mysql data source name
		LogSQL bool
	}
	UI struct {
		StaticPath string
	}
	Auth struct {
		JWTSecret  string
		TokenTTL   time.Duration
		BcryptCost int
	}
	Lending struct {
		LoanPeriodDays int
	}
	Log struct {
		Level  string
		Format string // "json" or "text"
	}
	Tasks struct {
		Enabled             bool
		Workers             int
		ReleaseAfter        time.Duration
		CleanupInterval     time.Duration
		MaintenanceSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Audit struct {
		RetentionDays int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", string(DatabaseDriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_sql", false)

	v.SetDefault("static_path", "./frontend")

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "") // Generated per process if empty
	v.SetDefault("auth_token_ttl", "1h")
	v.SetDefault("auth_bcrypt_cost", 10)

	v.SetDefault("loan_period_days", DefaultLoanPeriodDays)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Maintenance tasks are off unless explicitly enabled
	v.SetDefault("tasks_enabled", false)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("maintenance_schedule", "0 3 * * *")

	v.SetDefault("audit_retention_days", 90)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
			LogSQL: v.GetBool("DATABASE_LOG_SQL"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Auth: Auth{
			JWTSecret:  v.GetString("AUTH_JWT_SECRET"),
			TokenTTL:   v.GetDuration("AUTH_TOKEN_TTL"),
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
		Lending: Lending{
			LoanPeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tasks: Tasks{
			Enabled:             v.GetBool("TASKS_ENABLED"),
			Workers:             v.GetInt("TASK_WORKERS"),
			ReleaseAfter:        v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:     v.GetDuration("TASK_CLEANUP_INTERVAL"),
			MaintenanceSchedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Scheduling SchedulingConfig
	Audit      AuditConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the read-through schedule view cache.
type CacheConfig struct {
	Enabled     bool
	ScheduleTTL time.Duration
}

// SchedulingConfig carries the calendar zone and block span bounds.
// Timezone is the IANA zone all recurring dates are anchored in.
type SchedulingConfig struct {
	Timezone        string
	MinBlockMinutes int
	MaxBlockMinutes int
}

// AuditConfig tunes the asynchronous audit trail writer.
type AuditConfig struct {
	Enabled   bool
	Workers   int
	QueueSize int
	Retries   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_SCHEDULE_CACHE"),
		ScheduleTTL: parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Scheduling = SchedulingConfig{
		Timezone:        v.GetString("SCHEDULING_TIMEZONE"),
		MinBlockMinutes: v.GetInt("SCHEDULING_MIN_BLOCK_MINUTES"),
		MaxBlockMinutes: v.GetInt("SCHEDULING_MAX_BLOCK_MINUTES"),
	}

	cfg.Audit = AuditConfig{
		Enabled:   v.GetBool("ENABLE_AUDIT_TRAIL"),
		Workers:   v.GetInt("AUDIT_WORKERS"),
		QueueSize: v.GetInt("AUDIT_QUEUE_SIZE"),
		Retries:   v.GetInt("AUDIT_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "conservatory")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULE_CACHE", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("SCHEDULING_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SCHEDULING_MIN_BLOCK_MINUTES", 15)
	v.SetDefault("SCHEDULING_MAX_BLOCK_MINUTES", 480)

	v.SetDefault("ENABLE_AUDIT_TRAIL", true)
	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_QUEUE_SIZE", 256)
	v.SetDefault("AUDIT_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

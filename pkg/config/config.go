package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Snapshot store backends.
const (
	SnapshotStoreFile     = "file"
	SnapshotStoreRedis    = "redis"
	SnapshotStorePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Tracker  TrackerConfig
	WarBot   WarBotConfig
	Courses  CoursesConfig
	Captcha  CaptchaConfig
	Notify   NotifyConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TrackerConfig configures catalog change detection.
type TrackerConfig struct {
	Interval                 time.Duration
	SuppressProfessorChange  bool
	SuppressLocationChange   bool
	TrackedURL               string
	DiscordWebhookURL        string
	SnapshotFile             string
	SnapshotStore            string
	SnapshotDir              string
	SnapshotArchive          bool
	SnapshotHistoryRetention time.Duration
	SnapshotCacheTTL         time.Duration
}

// WarBotConfig configures the repeat-until-matched enrollment loop.
type WarBotConfig struct {
	Interval       time.Duration
	AutoSubmit     bool
	NotFoundRetry  bool
	PlanOutputFile string
}

// CoursesConfig points at the course target file.
type CoursesConfig struct {
	File string
}

// CaptchaConfig configures the captcha relay.
type CaptchaConfig struct {
	DiscordWebhookURL string
	Timeout           time.Duration
	MentionUserID     string
}

// NotifyConfig tunes the notification worker queue.
type NotifyConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	QueueSize  int
}

// ExportsConfig controls where rendered exports are written.
type ExportsConfig struct {
	StorageDir string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tracker = TrackerConfig{
		Interval:                 parseDuration(v.GetString("TRACKER_INTERVAL"), 20*time.Minute),
		SuppressProfessorChange:  v.GetBool("TRACKER_SUPPRESS_PROFESSOR_CHANGE"),
		SuppressLocationChange:   v.GetBool("TRACKER_SUPPRESS_LOCATION_CHANGE"),
		TrackedURL:               v.GetString("TRACKED_URL"),
		DiscordWebhookURL:        v.GetString("TRACKER_DISCORD_WEBHOOK_URL"),
		SnapshotFile:             v.GetString("TRACKER_SNAPSHOT_FILE"),
		SnapshotStore:            strings.ToLower(v.GetString("SNAPSHOT_STORE")),
		SnapshotDir:              v.GetString("SNAPSHOT_DIR"),
		SnapshotArchive:          v.GetBool("SNAPSHOT_ARCHIVE"),
		SnapshotHistoryRetention: parseDuration(v.GetString("SNAPSHOT_HISTORY_RETENTION"), 7*24*time.Hour),
		SnapshotCacheTTL:         parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), time.Minute),
	}

	cfg.WarBot = WarBotConfig{
		Interval:       parseDuration(v.GetString("WARBOT_INTERVAL"), 5*time.Second),
		AutoSubmit:     v.GetBool("WARBOT_AUTOSUBMIT"),
		NotFoundRetry:  v.GetBool("WARBOT_NOTFOUND_RETRY"),
		PlanOutputFile: v.GetString("WARBOT_PLAN_OUTPUT"),
	}

	cfg.Courses = CoursesConfig{File: v.GetString("COURSES_FILE")}

	cfg.Captcha = CaptchaConfig{
		DiscordWebhookURL: v.GetString("CAPTCHA_DISCORD_WEBHOOK_URL"),
		Timeout:           parseDuration(v.GetString("CAPTCHA_TIMEOUT"), 5*time.Minute),
		MentionUserID:     v.GetString("CAPTCHA_MENTION_USER_ID"),
	}

	cfg.Notify = NotifyConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		Retries:    v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 5*time.Second),
		QueueSize:  v.GetInt("NOTIFY_QUEUE_SIZE"),
	}

	cfg.Exports = ExportsConfig{StorageDir: v.GetString("EXPORTS_STORAGE_DIR")}

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
	v.SetDefault("DB_NAME", "warlock")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "siak-warlock")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("TRACKER_INTERVAL", "20m")
	v.SetDefault("TRACKER_SUPPRESS_PROFESSOR_CHANGE", false)
	v.SetDefault("TRACKER_SUPPRESS_LOCATION_CHANGE", false)
	v.SetDefault("TRACKED_URL", "https://academic.ui.ac.id/main/Schedule/Index?period=2025-1")
	v.SetDefault("TRACKER_DISCORD_WEBHOOK_URL", "")
	v.SetDefault("TRACKER_SNAPSHOT_FILE", "snapshot.json")
	v.SetDefault("SNAPSHOT_STORE", SnapshotStoreFile)
	v.SetDefault("SNAPSHOT_DIR", "./data")
	v.SetDefault("SNAPSHOT_ARCHIVE", false)
	v.SetDefault("SNAPSHOT_HISTORY_RETENTION", "168h")
	v.SetDefault("SNAPSHOT_CACHE_TTL", "1m")

	v.SetDefault("WARBOT_INTERVAL", "5s")
	v.SetDefault("WARBOT_AUTOSUBMIT", false)
	v.SetDefault("WARBOT_NOTFOUND_RETRY", false)
	v.SetDefault("WARBOT_PLAN_OUTPUT", "")

	v.SetDefault("COURSES_FILE", "")

	v.SetDefault("CAPTCHA_DISCORD_WEBHOOK_URL", "")
	v.SetDefault("CAPTCHA_TIMEOUT", "5m")
	v.SetDefault("CAPTCHA_MENTION_USER_ID", "")

	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "5s")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 16)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
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

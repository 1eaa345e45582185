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
	Env           string
	Port          int
	APIPrefix     string
	RunMigrations bool

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Planner     PlannerConfig
	Reminders   RemindersConfig
	Exports     ExportsConfig
	Backgrounds BackgroundsConfig
	MinIO       MinIOConfig
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
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig controls week computation and timetable rendering.
type PlannerConfig struct {
	Timezone           string
	WeekStart          time.Weekday
	FirstHour          int
	LastHour           int
	CacheTTL           time.Duration
	PreferenceCacheTTL time.Duration
}

// Location resolves the configured timezone, falling back to the host's local zone.
func (p PlannerConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RemindersConfig drives the bag reminder cron and its delivery workers.
type RemindersConfig struct {
	Enabled         bool
	Cron            string
	WeekRefreshCron string
	Workers         int
	Retries         int
	ChannelPrefix   string
}

// ExportsConfig configures timetable export storage and download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupCron     string
	ICSHorizonWeeks int
}

// BackgroundsConfig gates background image uploads.
type BackgroundsConfig struct {
	Enabled          bool
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	URLTTL           time.Duration
}

// MinIOConfig points at the object store holding background images.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		Timezone:           v.GetString("PLANNER_TIMEZONE"),
		WeekStart:          parseWeekday(v.GetString("PLANNER_WEEK_START"), time.Monday),
		FirstHour:          clampHour(v.GetInt("PLANNER_FIRST_HOUR"), 8),
		LastHour:           clampHour(v.GetInt("PLANNER_LAST_HOUR"), 21),
		CacheTTL:           parseDuration(v.GetString("PLANNER_CACHE_TTL"), time.Hour),
		PreferenceCacheTTL: parseDuration(v.GetString("PLANNER_PREFERENCE_CACHE_TTL"), 5*time.Minute),
	}
	if cfg.Planner.LastHour < cfg.Planner.FirstHour {
		cfg.Planner.FirstHour, cfg.Planner.LastHour = 8, 21
	}

	cfg.Reminders = RemindersConfig{
		Enabled:         v.GetBool("ENABLE_REMINDERS"),
		Cron:            v.GetString("REMINDER_CRON"),
		WeekRefreshCron: v.GetString("WEEK_REFRESH_CRON"),
		Workers:         v.GetInt("REMINDER_WORKERS"),
		Retries:         v.GetInt("REMINDER_RETRIES"),
		ChannelPrefix:   v.GetString("REMINDER_CHANNEL_PREFIX"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupCron:     v.GetString("EXPORTS_CLEANUP_CRON"),
		ICSHorizonWeeks: v.GetInt("EXPORTS_ICS_HORIZON_WEEKS"),
	}

	maxBackgroundSize := v.GetInt64("BACKGROUND_MAX_FILE_SIZE")
	if maxBackgroundSize <= 0 {
		maxBackgroundSize = 5 * 1024 * 1024
	}
	cfg.Backgrounds = BackgroundsConfig{
		Enabled:          v.GetBool("ENABLE_BACKGROUNDS"),
		MaxFileSizeBytes: maxBackgroundSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("BACKGROUND_ALLOWED_MIME_TYPES")),
		URLTTL:           parseDuration(v.GetString("BACKGROUND_URL_TTL"), time.Hour),
	}

	cfg.MinIO = MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_TIMEZONE", "")
	v.SetDefault("PLANNER_WEEK_START", "monday")
	v.SetDefault("PLANNER_FIRST_HOUR", 8)
	v.SetDefault("PLANNER_LAST_HOUR", 21)
	v.SetDefault("PLANNER_CACHE_TTL", "1h")
	v.SetDefault("PLANNER_PREFERENCE_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("REMINDER_CRON", "* * * * *")
	v.SetDefault("WEEK_REFRESH_CRON", "@hourly")
	v.SetDefault("REMINDER_WORKERS", 2)
	v.SetDefault("REMINDER_RETRIES", 3)
	v.SetDefault("REMINDER_CHANNEL_PREFIX", "planner:reminders")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_CRON", "@daily")
	v.SetDefault("EXPORTS_ICS_HORIZON_WEEKS", 26)

	v.SetDefault("ENABLE_BACKGROUNDS", false)
	v.SetDefault("BACKGROUND_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("BACKGROUND_ALLOWED_MIME_TYPES", "image/png,image/jpeg,image/webp,image/gif")
	v.SetDefault("BACKGROUND_URL_TTL", "1h")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "planner-backgrounds")
	v.SetDefault("MINIO_USE_SSL", false)
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

func parseWeekday(raw string, fallback time.Weekday) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sunday", "sun":
		return time.Sunday
	case "monday", "mon":
		return time.Monday
	case "saturday", "sat":
		return time.Saturday
	default:
		return fallback
	}
}

func clampHour(value, fallback int) int {
	if value < 0 || value > 23 {
		return fallback
	}
	return value
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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

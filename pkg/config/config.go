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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Grading     GradingConfig
	ReportCards ReportCardConfig
	Dashboard   DashboardConfig
	Batches     BatchConfig
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
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GradingConfig holds the two pass thresholds, in percent.
type GradingConfig struct {
	UIPassThreshold         float64
	ReportCardPassThreshold float64
}

// ReportCardConfig controls report card rendering and caching.
type ReportCardConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	PDFEnabled      bool
	AssembleTimeout time.Duration
}

// DashboardConfig tunes the marks dashboard fan-out.
type DashboardConfig struct {
	Concurrency int
	CacheTTL    time.Duration
}

// BatchConfig configures class-wide report card generation.
type BatchConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	Retention         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grading = GradingConfig{
		UIPassThreshold:         positiveFloat(v.GetFloat64("GRADING_UI_PASS_THRESHOLD"), 40),
		ReportCardPassThreshold: positiveFloat(v.GetFloat64("GRADING_REPORT_CARD_PASS_THRESHOLD"), 33),
	}

	cfg.ReportCards = ReportCardConfig{
		CacheEnabled:    v.GetBool("REPORT_CARD_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("REPORT_CARD_CACHE_TTL"), 10*time.Minute),
		PDFEnabled:      v.GetBool("REPORT_CARD_PDF_ENABLED"),
		AssembleTimeout: parseDuration(v.GetString("REPORT_CARD_ASSEMBLE_TIMEOUT"), 10*time.Second),
	}

	cfg.Dashboard = DashboardConfig{
		Concurrency: v.GetInt("MARKS_DASHBOARD_CONCURRENCY"),
		CacheTTL:    parseDuration(v.GetString("MARKS_DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}
	if cfg.Dashboard.Concurrency <= 0 {
		cfg.Dashboard.Concurrency = 8
	}

	cfg.Batches = BatchConfig{
		Enabled:           v.GetBool("ENABLE_BATCHES"),
		StorageDir:        v.GetString("BATCH_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("BATCH_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("BATCH_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("BATCH_CLEANUP_INTERVAL"), time.Hour),
		Retention:         parseDuration(v.GetString("BATCH_RETENTION"), 72*time.Hour),
		WorkerConcurrency: v.GetInt("BATCH_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("BATCH_WORKER_RETRIES"),
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
	v.SetDefault("DB_NAME", "sma_reportcard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADING_UI_PASS_THRESHOLD", 40)
	v.SetDefault("GRADING_REPORT_CARD_PASS_THRESHOLD", 33)

	v.SetDefault("REPORT_CARD_CACHE_ENABLED", true)
	v.SetDefault("REPORT_CARD_CACHE_TTL", "10m")
	v.SetDefault("REPORT_CARD_PDF_ENABLED", true)
	v.SetDefault("REPORT_CARD_ASSEMBLE_TIMEOUT", "10s")

	v.SetDefault("MARKS_DASHBOARD_CONCURRENCY", 8)
	v.SetDefault("MARKS_DASHBOARD_CACHE_TTL", "2m")

	v.SetDefault("ENABLE_BATCHES", false)
	v.SetDefault("BATCH_STORAGE_DIR", "./exports")
	v.SetDefault("BATCH_SIGNED_URL_SECRET", "dev_batch_secret")
	v.SetDefault("BATCH_SIGNED_URL_TTL", "24h")
	v.SetDefault("BATCH_CLEANUP_INTERVAL", "1h")
	v.SetDefault("BATCH_RETENTION", "72h")
	v.SetDefault("BATCH_WORKER_CONCURRENCY", 2)
	v.SetDefault("BATCH_WORKER_RETRIES", 3)
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

func positiveFloat(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
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

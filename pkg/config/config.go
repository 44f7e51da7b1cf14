package config

import (
	"errors"
	"fmt"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Cache      CacheConfig
	Attendance AttendanceConfig
	Grading    GradingConfig
	Export     ExportConfig
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
	// StatementTimeout bounds every statement server side. Zero disables it.
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
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

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// CacheConfig governs report caching and the invalidation workers.
type CacheConfig struct {
	Enabled           bool
	ReportTTL         time.Duration
	InvalidateWorkers int
	InvalidateRetries int
}

// AttendanceConfig holds the attendance requirement policy.
type AttendanceConfig struct {
	ThresholdPercent float64
	VacuousPass      bool
}

// GradingConfig holds the canonical score scale.
type GradingConfig struct {
	CanonicalScale   float64
	PassingThreshold float64
	// ManualScoreWeight is the weight a manual score carries next to task weights.
	ManualScoreWeight float64
}

// ExportConfig locates rendered reports and bounds their lifetime.
type ExportConfig struct {
	Dir             string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	// SigningSecret signs download links. It falls back to the JWT secret.
	SigningSecret string
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

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 3*time.Second),
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

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Cache = CacheConfig{
		Enabled:           v.GetBool("ENABLE_CACHE"),
		ReportTTL:         parseDuration(v.GetString("REPORT_CACHE_TTL"), 5*time.Minute),
		InvalidateWorkers: v.GetInt("CACHE_INVALIDATE_WORKERS"),
		InvalidateRetries: v.GetInt("CACHE_INVALIDATE_RETRIES"),
	}

	cfg.Attendance = AttendanceConfig{
		ThresholdPercent: v.GetFloat64("ATTENDANCE_THRESHOLD_PERCENT"),
		VacuousPass:      v.GetBool("ATTENDANCE_VACUOUS_PASS"),
	}

	cfg.Grading = GradingConfig{
		CanonicalScale:    v.GetFloat64("GRADING_CANONICAL_SCALE"),
		PassingThreshold:  v.GetFloat64("GRADING_PASSING_THRESHOLD"),
		ManualScoreWeight: v.GetFloat64("GRADING_MANUAL_SCORE_WEIGHT"),
	}

	cfg.Export = ExportConfig{
		Dir:             v.GetString("EXPORT_DIR"),
		ResultTTL:       parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
		SigningSecret:   v.GetString("EXPORT_SIGNING_SECRET"),
	}
	if cfg.Export.SigningSecret == "" {
		cfg.Export.SigningSecret = cfg.JWT.Secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects policy values the calculators cannot work with.
func (c *Config) Validate() error {
	if c.Attendance.ThresholdPercent < 0 || c.Attendance.ThresholdPercent > 100 {
		return fmt.Errorf("ATTENDANCE_THRESHOLD_PERCENT must be within 0..100, got %v", c.Attendance.ThresholdPercent)
	}
	if c.Grading.CanonicalScale <= 0 {
		return fmt.Errorf("GRADING_CANONICAL_SCALE must be positive, got %v", c.Grading.CanonicalScale)
	}
	if c.Grading.ManualScoreWeight < 0 {
		return fmt.Errorf("GRADING_MANUAL_SCORE_WEIGHT must not be negative, got %v", c.Grading.ManualScoreWeight)
	}
	if c.Grading.PassingThreshold < 0 || c.Grading.PassingThreshold > c.Grading.CanonicalScale {
		return fmt.Errorf("GRADING_PASSING_THRESHOLD must be within 0..%v, got %v", c.Grading.CanonicalScale, c.Grading.PassingThreshold)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_academic")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "15s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "3s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "sma-academic-core")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("REPORT_CACHE_TTL", "5m")
	v.SetDefault("CACHE_INVALIDATE_WORKERS", 1)
	v.SetDefault("CACHE_INVALIDATE_RETRIES", 3)

	v.SetDefault("ATTENDANCE_THRESHOLD_PERCENT", 75)
	v.SetDefault("ATTENDANCE_VACUOUS_PASS", true)
	v.SetDefault("GRADING_CANONICAL_SCALE", 20)
	v.SetDefault("GRADING_PASSING_THRESHOLD", 10)
	v.SetDefault("GRADING_MANUAL_SCORE_WEIGHT", 1)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORT_SIGNING_SECRET", "")
}

// isMissingFile reports whether viper failed because .env is absent.
// SetConfigFile skips the ConfigFileNotFoundError path and surfaces the raw fs error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

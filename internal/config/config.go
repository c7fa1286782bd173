package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	DiscordToken  string        `yaml:"discord_token"`
	LogLevel      string        `yaml:"log_level"`
	Storage       StorageConfig `yaml:"storage"`
	Health        HealthConfig  `yaml:"health"`
	EmbedColors   EmbedColors   `yaml:"embed_colors"`
	Notifications NotifyConfig  `yaml:"notifications"`
	Sessions      SessionConfig `yaml:"sessions"`
}

type StorageConfig struct {
	Driver      string      `yaml:"driver"`
	Path        string      `yaml:"path"`
	DatabaseURL string      `yaml:"database_url"`
	Redis       RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type EmbedColors struct {
	Default int `yaml:"default"`
	Success int `yaml:"success"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

type NotifyConfig struct {
	FloodJoins         int     `yaml:"flood_joins"`
	FloodWindowSeconds int     `yaml:"flood_window_seconds"`
	SendsPerSecond     float64 `yaml:"sends_per_second"`
	SendBurst          int     `yaml:"send_burst"`
	SendTimeoutSeconds int     `yaml:"send_timeout_seconds"`
	HistoryLimit       int     `yaml:"history_limit"`
}

type SessionConfig struct {
	AuthoringTimeoutMinutes int `yaml:"authoring_timeout_minutes"`
	ConfirmTimeoutSeconds   int `yaml:"confirm_timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   "data/guilds",
			Redis:  RedisConfig{Addr: "localhost:6379", Namespace: "herald:"},
		},
		Health: HealthConfig{Enabled: false, Addr: ":8080"},
		EmbedColors: EmbedColors{
			Default: 0x5865F2,
			Success: 0x57F287,
			Warning: 0xFEE75C,
			Error:   0xED4245,
		},
		Notifications: NotifyConfig{
			FloodJoins:         0,
			FloodWindowSeconds: 10,
			SendsPerSecond:     5,
			SendBurst:          5,
			SendTimeoutSeconds: 10,
			HistoryLimit:       20,
		},
		Sessions: SessionConfig{AuthoringTimeoutMinutes: 60, ConfirmTimeoutSeconds: 60},
	}
}

func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}

	cfg.Storage.Driver = normalizeDriver(cfg.Storage.Driver)
	if cfg.Storage.Driver == DriverSQLite && (cfg.Storage.Path == "" || cfg.Storage.Path == "data/guilds") {
		cfg.Storage.Path = "data/herald.db"
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.Storage.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required for the postgres storage driver")
	}
	if cfg.Sessions.ConfirmTimeoutSeconds <= 0 {
		cfg.Sessions.ConfirmTimeoutSeconds = 60
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Storage.Driver = envString("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = envString("STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.DatabaseURL = envString("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.Redis.Addr = envString("REDIS_ADDR", cfg.Storage.Redis.Addr)
	cfg.Storage.Redis.Password = envString("REDIS_PASSWORD", cfg.Storage.Redis.Password)
	cfg.Storage.Redis.DB = envInt("REDIS_DB", cfg.Storage.Redis.DB)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.EmbedColors.Default = envColor("EMBED_COLOR_DEFAULT", cfg.EmbedColors.Default)
	cfg.EmbedColors.Success = envColor("EMBED_COLOR_SUCCESS", cfg.EmbedColors.Success)
	cfg.EmbedColors.Warning = envColor("EMBED_COLOR_WARNING", cfg.EmbedColors.Warning)
	cfg.EmbedColors.Error = envColor("EMBED_COLOR_ERROR", cfg.EmbedColors.Error)
	cfg.Notifications.FloodJoins = envInt("FLOOD_JOINS", cfg.Notifications.FloodJoins)
	cfg.Notifications.FloodWindowSeconds = envInt("FLOOD_WINDOW_SECONDS", cfg.Notifications.FloodWindowSeconds)
	cfg.Notifications.SendsPerSecond = envFloat("SENDS_PER_SECOND", cfg.Notifications.SendsPerSecond)
	cfg.Sessions.AuthoringTimeoutMinutes = envInt("AUTHORING_TIMEOUT_MINUTES", cfg.Sessions.AuthoringTimeoutMinutes)
	cfg.Sessions.ConfirmTimeoutSeconds = envInt("CONFIRM_TIMEOUT_SECONDS", cfg.Sessions.ConfirmTimeoutSeconds)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// envColor accepts "#5865F2", "0x5865F2" or a decimal integer.
func envColor(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "0x") {
		hex := strings.TrimPrefix(strings.TrimPrefix(lower, "#"), "0x")
		if parsed, err := strconv.ParseInt(hex, 16, 32); err == nil {
			return int(parsed)
		}
		return fallback
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func normalizeDriver(value string) string {
	switch strings.ToLower(value) {
	case DriverSQLite, DriverPostgres, DriverRedis:
		return strings.ToLower(value)
	default:
		return DriverFile
	}
}

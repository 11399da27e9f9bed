package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	Server   ServerConfig
}

type AppConfig struct {
	Environment string // "development" or "production"
	TokensPath  string
}

type TelegramConfig struct {
	Token          string
	AdminChatID    int64
	UpdateMessages bool // edit the triggering message in place instead of sending a new one
	PollTimeout    time.Duration
	RateLimitRPS   int
	Debug          bool
}

type DatabaseConfig struct {
	Path string
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load loads configuration from environment variables. Files in envFiles are read
// first when present, variables already set in the environment win.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			TokensPath:  getEnv("TOKENS_PATH", "tokens.json"),
		},
		Telegram: TelegramConfig{
			Token:          getEnv("TELEGRAM_TOKEN", ""),
			AdminChatID:    getInt64Env("TELEGRAM_ADMIN_CHAT_ID", 0),
			UpdateMessages: getBoolEnv("TELEGRAM_UPDATE_MESSAGES", true),
			PollTimeout:    getDurationEnv("TELEGRAM_POLL_TIMEOUT", 60*time.Second),
			RateLimitRPS:   getIntEnv("TELEGRAM_RATE_LIMIT_RPS", 20),
			Debug:          getBoolEnv("TELEGRAM_DEBUG", false),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "data/tokenbot.db"),
		},
		Server: ServerConfig{
			Enabled:      getBoolEnv("SERVER_ENABLED", true),
			Host:         getEnv("SERVER_HOST", ""),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

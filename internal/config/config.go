// Package config loads service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	SpeechAPI SpeechAPIConfig
	History   HistoryConfig
	Auth      AuthConfig
	S3        S3Config
	Telegram  TelegramConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

type SpeechAPIConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	OpenAIAPIKey string // Whisper fallback
}

type HistoryConfig struct {
	Path        string
	MaxBlobSize int64
}

type AuthConfig struct {
	Secret string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		SpeechAPI: SpeechAPIConfig{
			BaseURL:      os.Getenv("SPEECH_API_URL"),
			APIKey:       os.Getenv("SPEECH_API_KEY"),
			Timeout:      getDuration("SPEECH_API_TIMEOUT", 60*time.Second),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		},
		History: HistoryConfig{
			Path:        getEnv("HISTORY_DB_PATH", "history.db"),
			MaxBlobSize: getInt64("HISTORY_MAX_BLOB_SIZE", 0),
		},
		Auth: AuthConfig{
			Secret: os.Getenv("AUTH_SECRET"),
		},
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
			Secure:    getBool("S3_SECURE", true),
		},
		Telegram: TelegramConfig{
			BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
			AdminChatID: getInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.SpeechAPI.Validate(); err != nil {
		return fmt.Errorf("speech api config: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if err := c.S3.Validate(); err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	return nil
}

func (c *SpeechAPIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("SPEECH_API_URL is not set")
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("AUTH_SECRET is not set")
	}
	return nil
}

// S3 is optional, but a partial configuration is a deployment mistake.
func (c *S3Config) Validate() error {
	if c.Endpoint == "" {
		return nil
	}
	if c.AccessKey == "" || c.SecretKey == "" || c.Bucket == "" {
		return fmt.Errorf("S3_ENDPOINT is set but credentials or bucket are missing")
	}
	return nil
}

// Enabled reports whether the optional S3 archive is configured.
func (c *S3Config) Enabled() bool { return c.Endpoint != "" }

// Enabled reports whether admin error notifications are configured.
func (c *TelegramConfig) Enabled() bool { return c.BotToken != "" && c.AdminChatID != 0 }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

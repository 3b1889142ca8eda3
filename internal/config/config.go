package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	EnableDevTokens bool          `yaml:"enable_dev_tokens"`
}

// SessionConfig holds session registry and batching configuration
type SessionConfig struct {
	BatchWindow    time.Duration `yaml:"batch_window"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	StaleThreshold time.Duration `yaml:"stale_threshold"`
}

// RealtimeConfig holds WebSocket transport configuration
type RealtimeConfig struct {
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBufferSize int           `yaml:"send_buffer_size"`
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
}

// Load loads configuration from an optional YAML file (CONFIG_FILE), with
// environment variables taking precedence over file values.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
		}
	}

	applyEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8082",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Auth: AuthConfig{
			JWTSecret:       "",
			TokenTTL:        24 * time.Hour,
			EnableDevTokens: false,
		},
		Session: SessionConfig{
			BatchWindow:    50 * time.Millisecond,
			SweepInterval:  10 * time.Minute,
			StaleThreshold: 1 * time.Hour,
		},
		Realtime: RealtimeConfig{
			AllowedOrigins: []string{"*"},
			MaxMessageSize: 64 * 1024,
			SendBufferSize: 256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Output = getEnv("LOG_OUTPUT", cfg.Logging.Output)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("AUTH_TOKEN_TTL", cfg.Auth.TokenTTL)
	if value := os.Getenv("ENABLE_DEV_TOKENS"); value != "" {
		cfg.Auth.EnableDevTokens = value == "true"
	}

	cfg.Session.BatchWindow = getEnvDuration("SESSION_BATCH_WINDOW", cfg.Session.BatchWindow)
	cfg.Session.SweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", cfg.Session.SweepInterval)
	cfg.Session.StaleThreshold = getEnvDuration("SESSION_STALE_THRESHOLD", cfg.Session.StaleThreshold)

	cfg.Realtime.AllowedOrigins = getEnvSlice("WS_ALLOWED_ORIGINS", cfg.Realtime.AllowedOrigins)
	cfg.Realtime.MaxMessageSize = getEnvInt64("WS_MAX_MESSAGE_SIZE", cfg.Realtime.MaxMessageSize)
	cfg.Realtime.SendBufferSize = getEnvInt("WS_SEND_BUFFER_SIZE", cfg.Realtime.SendBufferSize)
	cfg.Realtime.WriteWait = getEnvDuration("WS_WRITE_WAIT", cfg.Realtime.WriteWait)
	cfg.Realtime.PongWait = getEnvDuration("WS_PONG_WAIT", cfg.Realtime.PongWait)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

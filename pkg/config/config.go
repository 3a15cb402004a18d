package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Strategy YAML path (screener/scorer/gate/AI parameters)
	StrategyPath string
	// StrategyPathSet: 운영자가 STRATEGY_PATH를 직접 지정했는지.
	// 명시적 경로는 파일 부재 시 기본값 폴백 없이 즉시 실패해야 한다.
	StrategyPathSet bool

	// Database (optional; run artifacts are persisted when configured)
	Database DatabaseConfig

	// Redis (optional; consensus result cache)
	Redis RedisConfig

	// AI providers
	Claude ClaudeConfig
	Gemini GeminiConfig
	OpenAI OpenAIConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ClaudeConfig holds Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey  string
	Model   string
	Enabled bool
}

// GeminiConfig holds Google Gemini API configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	Enabled bool
}

// OpenAIConfig holds an OpenAI-compatible REST endpoint configuration
// 자체 호스팅(vLLM 등) 엔드포인트도 동일 프로토콜로 지원
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Enabled bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		StrategyPath:    getEnv("STRATEGY_PATH", "config/strategy/krx_signals_v1.yaml"),
		StrategyPathSet: os.Getenv("STRATEGY_PATH") != "",

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Claude: ClaudeConfig{
			APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			Model:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
			Enabled: getEnvAsBool("CLAUDE_ENABLED", true),
		},

		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Enabled: getEnvAsBool("GEMINI_ENABLED", true),
		},

		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Enabled: getEnvAsBool("OPENAI_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
// 안전 관련 값은 조용한 기본값 대신 즉시 실패
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.StrategyPath == "" {
		return fmt.Errorf("STRATEGY_PATH is required")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_ENABLED=true")
	}

	// Enabled providers must carry credentials
	if c.Claude.Enabled && c.Claude.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when CLAUDE_ENABLED=true")
	}
	if c.Gemini.Enabled && c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when GEMINI_ENABLED=true")
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when OPENAI_ENABLED=true")
	}

	if !c.Claude.Enabled && !c.Gemini.Enabled && !c.OpenAI.Enabled {
		return fmt.Errorf("at least one AI provider must be enabled")
	}

	return nil
}

// EnabledProviders returns the ids of enabled providers
func (c *Config) EnabledProviders() []string {
	ids := make([]string, 0, 3)
	if c.Claude.Enabled {
		ids = append(ids, "claude")
	}
	if c.Gemini.Enabled {
		ids = append(ids, "gemini")
	}
	if c.OpenAI.Enabled {
		ids = append(ids, "openai")
	}
	return ids
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

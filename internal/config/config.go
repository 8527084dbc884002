package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию Horror-Studio Bot.
type Config struct {
	// Настройки сервера
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	Env        string `envconfig:"ENV" default:"production"`

	// Единственная привилегированная учетка автора
	AuthorID int64 `envconfig:"AUTHOR_ID" required:"true"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBPassword    string        `envconfig:"DB_PASSWORD" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`

	// Хранилище сессий: memory либо redis
	SessionBackend string `envconfig:"SESSION_BACKEND" default:"memory"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`

	// Настройки генератора текста
	AIProvider    string        `envconfig:"AI_PROVIDER" default:"openai"` // openai (Groq-совместимый) или ollama
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.groq.com/openai/v1"`
	AIAPIKey      string        `envconfig:"AI_API_KEY" default:""`
	AIModel       string        `envconfig:"AI_MODEL" default:"llama-3.1-8b-instant"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"250"`
	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.9"`

	// Политика контекстного окна и ограничения промпта
	HistoryLimit      int `envconfig:"HISTORY_LIMIT" default:"20"`
	MaxFieldLen       int `envconfig:"MAX_FIELD_LEN" default:"2000"`
	PromptTokenBudget int `envconfig:"PROMPT_TOKEN_BUDGET" default:"3000"`

	// Транспортный адаптер (чат-платформа)
	TransportWebhookURL string        `envconfig:"TRANSPORT_WEBHOOK_URL" required:"true"`
	TransportTimeout    time.Duration `envconfig:"TRANSPORT_TIMEOUT" default:"10s"`

	// Секрет для проверки межсервисных токенов на /v1/events
	ServiceJWTSecret string `envconfig:"SERVICE_JWT_SECRET" required:"true"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	log.Printf("Конфигурация Horror-Studio Bot загружена:")
	log.Printf("  Port: %s", cfg.ServerPort)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Session Backend: %s", cfg.SessionBackend)
	log.Printf("  AI Provider: %s, Model: %s, Timeout: %v", cfg.AIProvider, cfg.AIModel, cfg.AITimeout)
	log.Printf("  History Limit: %d", cfg.HistoryLimit)

	return &cfg, nil
}

// Package config загружает конфигурацию сервиса из .env и переменных окружения
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Источники данных
const (
	SourceSynthetic = "synthetic"
	SourceDir       = "dir"
	SourceHTTP      = "http"
)

// Config содержит конфигурацию сервиса
type Config struct {
	ServerAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	DataSource   string
	DataDir      string
	UpstreamURL  string
	FetchTimeout time.Duration
	// SyntheticEnd последний день синтетических данных
	SyntheticEnd  time.Time
	SyntheticDays int

	Participants    []string
	BaseParticipant string
	// DerivePeers строит остальных участников из базового с разбросом ±20%
	DerivePeers      bool
	PeerClipToWindow bool
	HistoryDays      int
	UnitRate         float64
	CurrencySymbol   string
	CategoryFile     string
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if path := getEnv("ENV_FILE", ".env"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	// Синтетическая история по умолчанию совпадает с окном базовой линии
	historyDays := getEnvInt("HISTORY_DAYS", 30)

	cfg := &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),

		DataSource:    strings.ToLower(getEnv("DATA_SOURCE", SourceSynthetic)),
		DataDir:       getEnv("DATA_DIR", "all-data"),
		UpstreamURL:   getEnv("UPSTREAM_URL", ""),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		SyntheticEnd:  getEnvDate("SYNTHETIC_END", time.Now().UTC()),
		SyntheticDays: getEnvInt("SYNTHETIC_DAYS", historyDays),

		Participants:     getEnvList("PARTICIPANTS", []string{"P0", "P1", "P2", "P3"}),
		BaseParticipant:  getEnv("BASE_PARTICIPANT", "P0"),
		DerivePeers:      getEnvBool("DERIVE_PEERS", false),
		PeerClipToWindow: getEnvBool("PEER_CLIP_TO_WINDOW", false),
		HistoryDays:      historyDays,
		UnitRate:         getEnvFloat("UNIT_RATE", 0.2703),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "£"),
		CategoryFile:     getEnv("CATEGORY_DEFINITIONS", ""),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourceSynthetic, SourceDir:
	case SourceHTTP:
		if c.UpstreamURL == "" {
			return fmt.Errorf("UPSTREAM_URL is required when DATA_SOURCE=%s", SourceHTTP)
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q (want %s, %s or %s)", c.DataSource, SourceSynthetic, SourceDir, SourceHTTP)
	}
	if c.SyntheticDays < 1 {
		return fmt.Errorf("SYNTHETIC_DAYS must be positive, got %d", c.SyntheticDays)
	}
	if c.HistoryDays < 1 {
		return fmt.Errorf("HISTORY_DAYS must be positive, got %d", c.HistoryDays)
	}
	if c.UnitRate < 0 {
		return fmt.Errorf("UNIT_RATE must not be negative, got %v", c.UnitRate)
	}
	if len(c.Participants) == 0 {
		return fmt.Errorf("PARTICIPANTS must list at least one participant")
	}
	return nil
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленную переменную окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvDate разбирает дату YYYY-MM-DD в UTC
func getEnvDate(key string, defaultValue time.Time) time.Time {
	if value := os.Getenv(key); value != "" {
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую, пустые элементы отбрасываются
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

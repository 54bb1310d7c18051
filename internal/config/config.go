package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultPublicBaseURL is the endpoint compiled into served widget scripts
// when PUBLIC_BASE_URL is not set.
const DefaultPublicBaseURL = "https://luxury-leads-ai.onrender.com"

type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	Model         string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	// Database
	DatabaseURL string `env:"DB_URL" envDefault:"sqlite://luxury_leads.db"`
	// Assistant persona override (YAML); empty uses the embedded default
	PromptsFile string `env:"ASSISTANT_PROMPTS"`
	// Base URL compiled into /widget.js
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"https://luxury-leads-ai.onrender.com"`
	// Agency cache
	RedisURL       string        `env:"REDIS_URL"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	AgencyCacheTTL time.Duration `env:"AGENCY_CACHE_TTL" envDefault:"5m"`
	// Chat limits
	ChatRatePerMinute int           `env:"CHAT_RATE_PER_MINUTE" envDefault:"30"`
	ChatTimeout       time.Duration `env:"CHAT_TIMEOUT" envDefault:"30s"`
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = DefaultPublicBaseURL
	}
	if cfg.ChatRatePerMinute < 0 {
		return Config{}, fmt.Errorf("CHAT_RATE_PER_MINUTE must not be negative, got %d", cfg.ChatRatePerMinute)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; chat replies will fail until provided")
	}
	return cfg, nil
}

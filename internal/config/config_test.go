package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "OPENAI_MODEL", "ALLOWED_ORIGIN", "DB_URL", "PUBLIC_BASE_URL",
		"AGENCY_CACHE_TTL", "CHAT_RATE_PER_MINUTE", "CHAT_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, "sqlite://luxury_leads.db", cfg.DatabaseURL)
	assert.Equal(t, DefaultPublicBaseURL, cfg.PublicBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.AgencyCacheTTL)
	assert.Equal(t, 30, cfg.ChatRatePerMinute)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("DB_URL", "postgres://leads@localhost/leads")
	t.Setenv("PUBLIC_BASE_URL", "https://widgets.example.com/")
	t.Setenv("AGENCY_CACHE_TTL", "90s")
	t.Setenv("CHAT_RATE_PER_MINUTE", "0")

	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "postgres://leads@localhost/leads", cfg.DatabaseURL)
	assert.Equal(t, "https://widgets.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 90*time.Second, cfg.AgencyCacheTTL)
	assert.Equal(t, 0, cfg.ChatRatePerMinute)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative rate", "CHAT_RATE_PER_MINUTE", "-1"},
		{"bad duration", "CHAT_TIMEOUT", "soon"},
		{"bad integer", "CHAT_RATE_PER_MINUTE", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := parse()
			require.Error(t, err)
		})
	}
}

package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.BaseCurrency != "XAF" || cfg.PegAnchor != "EUR" {
		t.Fatalf("unexpected currency defaults: base=%s anchor=%s", cfg.BaseCurrency, cfg.PegAnchor)
	}

	if !cfg.PegRate.Equal(decimal.RequireFromString("655.957")) {
		t.Fatalf("expected peg rate 655.957, got %s", cfg.PegRate)
	}

	if cfg.ConflictMaxRetries != 3 {
		t.Fatalf("expected 3 conflict attempts, got %d", cfg.ConflictMaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RATE_TIMEOUT", "2s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("BASE_CURRENCY", "usd")
	t.Setenv("BUDGET_LIMITS", "food=50000,transport=12000.50")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StorageDriver != config.StorageMemory {
		t.Fatalf("expected memory storage, got %s", cfg.StorageDriver)
	}

	if cfg.RedisURL != "redis://example" || cfg.HTTPPort != "9090" {
		t.Fatalf("expected overrides, got redis=%s port=%s", cfg.RedisURL, cfg.HTTPPort)
	}

	if cfg.RateTimeout != 2*time.Second {
		t.Fatalf("expected rate timeout override, got %s", cfg.RateTimeout)
	}

	if cfg.BaseCurrency != "USD" {
		t.Fatalf("expected normalized base currency, got %s", cfg.BaseCurrency)
	}

	if cfg.BudgetLimits["food"] != "50000" || cfg.BudgetLimits["transport"] != "12000.50" {
		t.Fatalf("unexpected budget limits: %v", cfg.BudgetLimits)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "duration", key: "HTTP_READ_TIMEOUT", val: "not-a-duration"},
		{name: "peg rate", key: "PEG_RATE", val: "abc"},
		{name: "storage driver", key: "STORAGE_DRIVER", val: "sqlite"},
		{name: "currency", key: "BASE_CURRENCY", val: "ZZZ"},
		{name: "zero peg", key: "PEG_RATE", val: "0"},
		{name: "no attempts", key: "CONFLICT_MAX_RETRIES", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadAuthRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

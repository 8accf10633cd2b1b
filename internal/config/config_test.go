package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_EAAPIDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.EAAPIBaseURL != "https://proclubs.ea.com/api/nhl" {
		t.Fatalf("unexpected EAAPIBaseURL: %q", cfg.EAAPIBaseURL)
	}
	if cfg.EAAPIPlatform != "common-gen5" {
		t.Fatalf("unexpected EAAPIPlatform: %q", cfg.EAAPIPlatform)
	}
	if cfg.EAAPIMatchType != "club_private" {
		t.Fatalf("unexpected EAAPIMatchType: %q", cfg.EAAPIMatchType)
	}
	if cfg.EAAPITimeout != 20*time.Second {
		t.Fatalf("unexpected EAAPITimeout: %s", cfg.EAAPITimeout)
	}
	if cfg.EAAPIMaxRetries != 2 {
		t.Fatalf("unexpected EAAPIMaxRetries: %d", cfg.EAAPIMaxRetries)
	}
	if !cfg.EAAPICircuitEnabled {
		t.Fatalf("expected EA API circuit breaker enabled by default")
	}
}

func TestLoad_DiscordRequiresWebhookWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DISCORD_ENABLED=true without DISCORD_WEBHOOK_URL")
	}
}

func TestLoad_DiscordConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
	t.Setenv("DISCORD_USERNAME", "recap-bot")
	t.Setenv("DISCORD_TIMEOUT", "7s")
	t.Setenv("DISCORD_MAX_RETRIES", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.DiscordEnabled {
		t.Fatalf("expected DiscordEnabled=true")
	}
	if cfg.DiscordWebhookURL != "https://discord.com/api/webhooks/1/abc" {
		t.Fatalf("unexpected DiscordWebhookURL: %q", cfg.DiscordWebhookURL)
	}
	if cfg.DiscordUsername != "recap-bot" {
		t.Fatalf("unexpected DiscordUsername: %q", cfg.DiscordUsername)
	}
	if cfg.DiscordTimeout != 7*time.Second {
		t.Fatalf("unexpected DiscordTimeout: %s", cfg.DiscordTimeout)
	}
	if cfg.DiscordMaxRetries != 1 {
		t.Fatalf("unexpected DiscordMaxRetries: %d", cfg.DiscordMaxRetries)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "chel-stats-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "chel-stats-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://chel-stats.app, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://chel-stats.app" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_BackfillConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.BackfillMaxWorkers != 4 {
			t.Fatalf("unexpected default backfill workers: %d", cfg.BackfillMaxWorkers)
		}
		if cfg.BackfillSessionGap != 6*time.Hour {
			t.Fatalf("unexpected default session gap: %s", cfg.BackfillSessionGap)
		}
	})

	t.Run("rejects zero workers", func(t *testing.T) {
		t.Setenv("BACKFILL_MAX_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for BACKFILL_MAX_WORKERS=0")
		}
	})
}

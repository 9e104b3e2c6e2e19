package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "API_PORT", "REASONING_PROVIDER", "OCR_PROVIDER", "GEMINI_API_KEY",
		"KAFKA_BROKERS", "RATE_LIMIT_RPS", "REASONING_TIMEOUT", "BREAKER_ENABLED", "MAX_IN_FLIGHT",
		"EVALUATION_DOCS_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" || cfg.ReasoningProvider != ProviderOllama || cfg.OCRProvider != ProviderOllama {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ReasoningTimeout != 120*time.Second {
		t.Fatalf("expected reasoning timeout 120s, got %v", cfg.ReasoningTimeout)
	}
	if cfg.EvaluationDocsDir != "./data/documents" {
		t.Fatalf("unexpected evaluation documents dir %q", cfg.EvaluationDocsDir)
	}
	if cfg.ModelPath != "./models/eligibility_model.json" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadAppliesFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_port: \"9000\"\nreasoning_provider: none\nreasoning_timeout: 30s\nkafka_brokers:\n  - kafka-1:9092\nrate_limit_rps: 2.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9100" {
		t.Fatalf("expected env to win over file, got %q", cfg.APIPort)
	}
	if cfg.ReasoningProvider != ProviderNone || cfg.ReasoningTimeout != 30*time.Second || cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"a:9092", "b:9092"}) {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_IN_FLIGHT", "lots")
	t.Setenv("REASONING_TIMEOUT", "soon")
	t.Setenv("BREAKER_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxInFlight != 32 || cfg.ReasoningTimeout != 120*time.Second || !cfg.BreakerEnabled {
		t.Fatalf("expected fallbacks, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("REASONING_PROVIDER", "openai")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRequiresGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_PROVIDER", "Gemini")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without gemini key")
	}
	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCRProvider != ProviderGemini {
		t.Fatalf("expected normalized provider, got %q", cfg.OCRProvider)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

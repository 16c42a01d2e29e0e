package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must load defaults: %v", err)
	}
	if len(cfg.Watchlist) == 0 {
		t.Error("expected default watchlist")
	}
	if cfg.Market.Benchmark != "SPY" {
		t.Errorf("benchmark = %q", cfg.Market.Benchmark)
	}
	if cfg.Reasoning.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.Reasoning.Model)
	}
	if cfg.Broker.TokenFile == "" {
		t.Error("expected default token file path")
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
watchlist:
  - symbol: NFLX
    display_name: Netflix
  - symbol: QTUM
    display_name: Defiance Quantum ETF
    benchmark: true
market:
  benchmark: VOO
notify:
  channel: telegram
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Watchlist) != 2 {
		t.Fatalf("watchlist len = %d", len(cfg.Watchlist))
	}
	if !cfg.Watchlist[1].Benchmark {
		t.Error("QTUM should be benchmark-class")
	}
	if cfg.Market.Benchmark != "VOO" {
		t.Errorf("benchmark = %q", cfg.Market.Benchmark)
	}
	if cfg.Notify.Channel != "telegram" {
		t.Errorf("channel = %q", cfg.Notify.Channel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("SCHWAB_API_KEY", "env-key")
	t.Setenv("SCHWAB_API_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reasoning.APIKey != "env-gemini" {
		t.Errorf("reasoning key = %q", cfg.Reasoning.APIKey)
	}
	if cfg.Broker.APIKey != "env-key" || cfg.Broker.APISecret != "env-secret" {
		t.Errorf("broker creds = %q/%q", cfg.Broker.APIKey, cfg.Broker.APISecret)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		cfg.Reasoning.APIKey = "k"
		cfg.Notify.Mailgun.Domain = "mg.example.com"
		cfg.Notify.Mailgun.SendKey = "key"
		cfg.Notify.Mailgun.To = "me@example.com"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := valid()
	cfg.Watchlist = nil
	if err := cfg.Validate(); err == nil {
		t.Error("empty watchlist must fail validation")
	}

	cfg = valid()
	cfg.Reasoning.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing reasoning key must fail validation")
	}

	cfg = valid()
	cfg.Notify.Channel = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown channel must fail validation")
	}

	cfg = valid()
	cfg.Notify.Channel = "telegram"
	if err := cfg.Validate(); err == nil {
		t.Error("telegram channel without credentials must fail validation")
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Providers.Primary != "deepseek" || cfg.Providers.Fallback != "openai" {
		t.Errorf("unexpected providers %q/%q", cfg.Providers.Primary, cfg.Providers.Fallback)
	}
	if cfg.Providers.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", cfg.Providers.Timeout)
	}
	if cfg.RateLimit.Requests != 10 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_ExactEnvNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("PROVIDER_TIMEOUT", "15s")
	t.Setenv("DATABASE_URL", "postgres://localhost/testgen")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "shh")
	t.Setenv("PORT", "9090")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.Providers.Settings("deepseek").APIKey; got != "ds-key" {
		t.Errorf("expected deepseek key, got %q", got)
	}
	if got := cfg.Providers.Settings("openai").APIKey; got != "oa-key" {
		t.Errorf("expected openai key, got %q", got)
	}
	if cfg.Providers.Timeout != 15*time.Second {
		t.Errorf("expected 15s, got %v", cfg.Providers.Timeout)
	}
	if cfg.Database.URL != "postgres://localhost/testgen" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if !cfg.Payment.Enabled() {
		t.Error("expected payment enabled")
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected PORT to set the address, got %q", cfg.Server.Addr)
	}
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TESTGEN_PRIMARY", "Anthropic")
	t.Setenv("TESTGEN_FALLBACK", "mock")
	t.Setenv("TESTGEN_ANTHROPIC_MODEL", "claude-test")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.Primary != "anthropic" || cfg.Providers.Fallback != "mock" {
		t.Errorf("unexpected providers %q/%q", cfg.Providers.Primary, cfg.Providers.Fallback)
	}
	if cfg.Providers.Anthropic.Model != "claude-test" {
		t.Errorf("unexpected model %q", cfg.Providers.Anthropic.Model)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TESTGEN_PRIMARY", "gemini")
	t.Setenv("PROVIDER_TIMEOUT", "0s")

	_, err := Load(NewViper())
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"unknown primary provider", "provider-timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestLoad_SameProviderTwice(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TESTGEN_PRIMARY", "OpenAI")
	t.Setenv("TESTGEN_FALLBACK", "openai")

	_, err := Load(NewViper())
	if err == nil || !strings.Contains(err.Error(), "primary and fallback must differ") {
		t.Fatalf("expected identical providers to be rejected, got %v", err)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TESTGEN_TRUSTED_PROXIES", "10.0.0.0/8 192.0.2.50")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.RateLimit.TrustedProxies) != 2 || cfg.RateLimit.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("unexpected trusted proxies %v", cfg.RateLimit.TrustedProxies)
	}
}

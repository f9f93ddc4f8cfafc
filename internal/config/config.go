package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Providers ProvidersConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type ProviderSettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ProvidersConfig struct {
	Primary   string
	Fallback  string
	Timeout   time.Duration
	Mock      bool
	DeepSeek  ProviderSettings
	OpenAI    ProviderSettings
	Anthropic ProviderSettings
}

// Settings returns the credentials for a provider name.
func (p ProvidersConfig) Settings(name string) ProviderSettings {
	switch name {
	case "deepseek":
		return p.DeepSeek
	case "openai":
		return p.OpenAI
	case "anthropic":
		return p.Anthropic
	default:
		return ProviderSettings{}
	}
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

func (p PaymentConfig) Enabled() bool {
	return p.KeyID != "" && p.KeySecret != ""
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

// Environment names read verbatim, without the TESTGEN_ prefix.
var exactEnv = map[string]string{
	"deepseek-api-key":    "DEEPSEEK_API_KEY",
	"openai-api-key":      "OPENAI_API_KEY",
	"anthropic-api-key":   "ANTHROPIC_API_KEY",
	"provider-timeout":    "PROVIDER_TIMEOUT",
	"database-url":        "DATABASE_URL",
	"jwt-secret":          "SUPABASE_JWT_SECRET",
	"razorpay-key-id":     "RAZORPAY_KEY_ID",
	"razorpay-key-secret": "RAZORPAY_KEY_SECRET",
	"port":                "PORT",
}

var validProviders = map[string]bool{
	"deepseek":  true,
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// NewViper returns a viper instance reading TESTGEN_-prefixed environment
// variables, the exact provider and database names, and a .env file if one
// exists in the working directory.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TESTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, env := range exactEnv {
		_ = v.BindEnv(key, "TESTGEN_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), env)
	}

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cors-origins", []string{"*"})
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "json")
	v.SetDefault("primary", "deepseek")
	v.SetDefault("fallback", "openai")
	v.SetDefault("provider-timeout", "60s")
	v.SetDefault("deepseek-base-url", "https://api.deepseek.com/v1")
	v.SetDefault("razorpay-base-url", "https://api.razorpay.com/v1")
	v.SetDefault("rate-limit", 10)
	v.SetDefault("rate-window", "1m")
}

// Load reads a Config from v and checks it.
func Load(v *viper.Viper) (*Config, error) {
	addr := v.GetString("addr")
	if addr == "" {
		addr = ":8080"
		if port := v.GetString("port"); port != "" {
			addr = ":" + port
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:        addr,
			CORSOrigins: v.GetStringSlice("cors-origins"),
		},
		Log: LogConfig{
			Level:  v.GetString("log-level"),
			Format: v.GetString("log-format"),
		},
		Providers: ProvidersConfig{
			Primary:  strings.ToLower(v.GetString("primary")),
			Fallback: strings.ToLower(v.GetString("fallback")),
			Timeout:  v.GetDuration("provider-timeout"),
			Mock:     v.GetBool("mock"),
			DeepSeek: ProviderSettings{
				APIKey:  v.GetString("deepseek-api-key"),
				Model:   v.GetString("deepseek-model"),
				BaseURL: v.GetString("deepseek-base-url"),
			},
			OpenAI: ProviderSettings{
				APIKey:  v.GetString("openai-api-key"),
				Model:   v.GetString("openai-model"),
				BaseURL: v.GetString("openai-base-url"),
			},
			Anthropic: ProviderSettings{
				APIKey: v.GetString("anthropic-api-key"),
				Model:  v.GetString("anthropic-model"),
			},
		},
		Database: DatabaseConfig{URL: v.GetString("database-url")},
		Auth:     AuthConfig{JWTSecret: v.GetString("jwt-secret")},
		Payment: PaymentConfig{
			KeyID:     v.GetString("razorpay-key-id"),
			KeySecret: v.GetString("razorpay-key-secret"),
			BaseURL:   v.GetString("razorpay-base-url"),
		},
		RateLimit: RateLimitConfig{
			Requests:       v.GetInt("rate-limit"),
			Window:         v.GetDuration("rate-window"),
			TrustedProxies: v.GetStringSlice("trusted-proxies"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string
	if !validProviders[c.Providers.Primary] {
		errs = append(errs, fmt.Sprintf("unknown primary provider %q", c.Providers.Primary))
	}
	if !validProviders[c.Providers.Fallback] {
		errs = append(errs, fmt.Sprintf("unknown fallback provider %q", c.Providers.Fallback))
	}
	if c.Providers.Primary == c.Providers.Fallback {
		errs = append(errs, fmt.Sprintf("primary and fallback must differ, both are %q", c.Providers.Primary))
	}
	if c.Providers.Timeout <= 0 {
		errs = append(errs, "provider-timeout must be positive")
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, "rate-limit must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, "rate-window must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

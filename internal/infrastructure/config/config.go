package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "shophub.yaml"

type Config struct {
	ServiceName string `mapstructure:"service_name"`
	Env         string `mapstructure:"env"`
	HTTPAddr    string `mapstructure:"http_addr"`
	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`

	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	FrontendURL         string `mapstructure:"frontend_url"`

	Currency              string `mapstructure:"currency"`
	FreeShippingThreshold string `mapstructure:"free_shipping_threshold"`
	ShippingFee           string `mapstructure:"shipping_fee"`

	WebhookDedupTTL   time.Duration `mapstructure:"webhook_dedup_ttl"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	ReconcileGrace    time.Duration `mapstructure:"reconcile_grace"`

	// Simulated provider, used when stripe_secret_key is empty. A zero delay turns off
	// simulated webhook delivery.
	PaymentSimSuccessRate  float64       `mapstructure:"payment_sim_success_rate"`
	PaymentSimWebhookDelay time.Duration `mapstructure:"payment_sim_webhook_delay"`
}

var defaults = map[string]any{
	"service_name":            "shophub",
	"env":                     "dev",
	"http_addr":               ":4000",
	"log_file":                "",
	"log_level":               "info",
	"log_format":              "json",
	"database_url":            "",
	"redis_url":               "",
	"jwt_secret":              "",
	"admin_email":             "admin@shop-hub.com",
	"admin_password":          "admin123",
	"stripe_secret_key":       "",
	"stripe_webhook_secret":   "",
	"frontend_url":            "http://localhost:3000",
	"currency":                "usd",
	"free_shipping_threshold": "100",
	"shipping_fee":            "10",
	"webhook_dedup_ttl":       72 * time.Hour,
	"reconcile_interval":      5 * time.Minute,
	"reconcile_grace":         15 * time.Minute,

	"payment_sim_success_rate":  0.7,
	"payment_sim_webhook_delay": 3 * time.Second,
}

// Load merges defaults, an optional YAML file, a .env file and the process environment,
// in increasing order of precedence. An empty path falls back to DefaultConfigFile if it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := decimal.NewFromString(c.FreeShippingThreshold); err != nil {
		return fmt.Errorf("config: free_shipping_threshold: %w", err)
	}
	if _, err := decimal.NewFromString(c.ShippingFee); err != nil {
		return fmt.Errorf("config: shipping_fee: %w", err)
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return errors.New("config: jwt_secret is required in production")
	}
	if c.PaymentSimSuccessRate < 0 || c.PaymentSimSuccessRate > 1 {
		return errors.New("config: payment_sim_success_rate must be between 0 and 1")
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		return errors.New("config: stripe_webhook_secret is required with stripe_secret_key")
	}
	return nil
}

// Shipping returns the free-shipping threshold and the flat fee. Validate has already parsed both.
func (c *Config) Shipping() (threshold, fee decimal.Decimal) {
	return decimal.RequireFromString(c.FreeShippingThreshold), decimal.RequireFromString(c.ShippingFee)
}

// UsesStripe reports whether the real provider is configured.
func (c *Config) UsesStripe() bool {
	return c.StripeSecretKey != ""
}

// AllowedOrigins lists the browser origins the API accepts.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:3000", "http://localhost:3001"}
	if c.FrontendURL != "" && c.FrontendURL != origins[0] && c.FrontendURL != origins[1] {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

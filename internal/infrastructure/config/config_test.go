package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "shophub", cfg.ServiceName)
	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 72*time.Hour, cfg.WebhookDedupTTL)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 0.7, cfg.PaymentSimSuccessRate)
	assert.Equal(t, 3*time.Second, cfg.PaymentSimWebhookDelay)
	assert.False(t, cfg.UsesStripe())

	threshold, fee := cfg.Shipping()
	assert.Equal(t, "100", threshold.String())
	assert.Equal(t, "10", fee.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9000\"\ncurrency: eur\nreconcile_grace: 30m\n"), 0o644))
	t.Setenv("CURRENCY", "gbp")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "gbp", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.ReconcileGrace)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("simulated success rate out of range", func(t *testing.T) {
		t.Setenv("PAYMENT_SIM_SUCCESS_RATE", "1.5")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("bad shipping fee", func(t *testing.T) {
		t.Setenv("SHIPPING_FEE", "ten")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("stripe without webhook secret", func(t *testing.T) {
		t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("production needs jwt secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{FrontendURL: "https://shop.example.com"}
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001", "https://shop.example.com"}, cfg.AllowedOrigins())

	cfg.FrontendURL = "http://localhost:3000"
	assert.Len(t, cfg.AllowedOrigins(), 2)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_BAD_INT", "x")
	t.Setenv("STOREFRONT_TEST_BOOL", "true")
	t.Setenv("STOREFRONT_TEST_DUR", "3s")
	t.Setenv("STOREFRONT_TEST_DUR_SECS", "7")

	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_BAD_INT", 1))
	assert.True(t, EnvBoolDefault("STOREFRONT_TEST_BOOL", false))
	assert.Equal(t, "def", EnvDefault("STOREFRONT_TEST_MISSING", "def"))
	assert.Equal(t, 3*time.Second, EnvDurationDefault("STOREFRONT_TEST_DUR", time.Second))
	assert.Equal(t, 7*time.Second, EnvDurationDefault("STOREFRONT_TEST_DUR_SECS", time.Second))
	assert.Equal(t, time.Minute, EnvDurationDefault("STOREFRONT_TEST_MISSING", time.Minute))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, "usd", cfg.PaymentCurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.NotZero(t, cfg.PaymentTimeout)
	assert.NotZero(t, cfg.JWTTTL)
}

func TestCheckPositive(t *testing.T) {
	assert.NoError(t, checkPositive(int64(15*time.Second), "PAYMENT_TIMEOUT"))
	assert.EqualError(t, checkPositive(0, "PAYMENT_TIMEOUT"), "env PAYMENT_TIMEOUT must be positive")
	assert.Error(t, checkPositive(int64(-time.Second), "JWT_TTL"))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.EventStore)
	assert.Equal(t, 72*time.Hour, cfg.DeliveryOffset)
	assert.Equal(t, 12*time.Hour, cfg.AdminTokenTTL)
	assert.Empty(t, cfg.AdminPasswordHash)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("EVENT_STORE", "postgres")
	t.Setenv("DELIVERY_OFFSET", "48h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.EventStore)
	assert.Equal(t, 48*time.Hour, cfg.DeliveryOffset)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("EVENT_STORE", "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestBrokers_Empty(t *testing.T) {
	assert.Nil(t, (&Config{}).Brokers())
}

func TestValidate(t *testing.T) {
	valid := Config{EventStore: BackendDynamo, AdminTokenTTL: time.Hour}
	assert.NoError(t, valid.Validate())

	noTTL := valid
	noTTL.AdminTokenTTL = 0
	assert.Error(t, noTTL.Validate())

	negativeOffset := valid
	negativeOffset.DeliveryOffset = -time.Hour
	assert.Error(t, negativeOffset.Validate())
}

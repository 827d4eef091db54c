package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "KAFKA_BROKERS", "STORE_DRIVER", "SETTLEMENT_MIN_DELAY",
		"SETTLEMENT_MAX_DELAY", "SETTLEMENT_SUCCESS_RATE", "RESTOCK_ON_PAYMENT_FAILURE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, time.Second, cfg.Settlement.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Settlement.MaxDelay)
	assert.InDelta(t, 0.9, cfg.Settlement.SuccessRate, 1e-9)
	assert.False(t, cfg.Settlement.RestockOnFailure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("SETTLEMENT_MIN_DELAY", "10ms")
	t.Setenv("SETTLEMENT_MAX_DELAY", "20ms")
	t.Setenv("SETTLEMENT_SUCCESS_RATE", "0.5")
	t.Setenv("RESTOCK_ON_PAYMENT_FAILURE", "true")
	t.Setenv("PROJECTOR_WORKERS", "2")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 10*time.Millisecond, cfg.Settlement.MinDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Settlement.MaxDelay)
	assert.InDelta(t, 0.5, cfg.Settlement.SuccessRate, 1e-9)
	assert.True(t, cfg.Settlement.RestockOnFailure)
	assert.Equal(t, 2, cfg.ProjectorWorkers)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("SETTLEMENT_MIN_DELAY", "2s")
	t.Setenv("SETTLEMENT_MAX_DELAY", "1s")
	t.Setenv("SETTLEMENT_SUCCESS_RATE", "1.5")
	t.Setenv("PROJECTOR_WORKERS", "zero")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.Settlement.MaxDelay)
	assert.InDelta(t, 0.9, cfg.Settlement.SuccessRate, 1e-9)
	assert.Equal(t, 4, cfg.ProjectorWorkers)
}

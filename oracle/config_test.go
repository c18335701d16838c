package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"WS_URL_RELAY":       "wss://relay.example",
		"WS_URL_PARA":        "wss://para.example",
		"CONTRACT_ADDRESS":   "0x0000000000000000000000000000000000000001",
		"ORACLE_PRIVATE_KEY": "deadbeef",
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), cfg.GasLimit)
	assert.Equal(t, 180*time.Second, cfg.FrequencyOfRequests)
	assert.Equal(t, uint32(10), cfg.MaxNumberOfFailureRequests)
	assert.Equal(t, uint64(30), cfg.EraDurationInBlocks)
	assert.Equal(t, uint16(8000), cfg.RestAPIServerPort)
	assert.Equal(t, uint16(8000), cfg.PrometheusMetricsPort)
	assert.False(t, cfg.DebugMode)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadConfigDebugMode(t *testing.T) {
	withEnv(t, map[string]string{
		"WS_URL_RELAY":       "wss://relay.example",
		"WS_URL_PARA":        "wss://para.example",
		"CONTRACT_ADDRESS":   "0x0000000000000000000000000000000000000001",
		"ORACLE_PRIVATE_KEY": "deadbeef",
		"ORACLE_MODE":        "debug",
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.DebugMode)
}

func TestLoadConfigRequiresOneKeySource(t *testing.T) {
	withEnv(t, map[string]string{
		"WS_URL_RELAY":     "wss://relay.example",
		"WS_URL_PARA":      "wss://para.example",
		"CONTRACT_ADDRESS": "0x0000000000000000000000000000000000000001",
	})

	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

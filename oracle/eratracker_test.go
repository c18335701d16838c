package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEraTrackerCheckSkewWithinLimit(t *testing.T) {
	cfg := &Config{
		EraDurationInSeconds: 180 * time.Second,
		EraDelayTime:         600 * time.Second,
	}
	tr := NewEraTracker(testLogger(), nil, cfg)
	tr.current.EraID = 5

	require.NoError(t, tr.CheckSkew(4))
}

func TestEraTrackerCheckSkewFatal(t *testing.T) {
	cfg := &Config{
		EraDurationInSeconds: 180 * time.Second,
		EraDelayTime:         600 * time.Second,
	}
	tr := NewEraTracker(testLogger(), nil, cfg)
	tr.current.EraID = 10

	err := tr.CheckSkew(6)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSkewFatal)
}

func TestEraTrackerCheckSkewContractAhead(t *testing.T) {
	cfg := &Config{
		EraDurationInSeconds: 180 * time.Second,
		EraDelayTime:         600 * time.Second,
	}
	tr := NewEraTracker(testLogger(), nil, cfg)
	tr.current.EraID = 3

	require.NoError(t, tr.CheckSkew(5))
}

func TestEraTrackerStagnantFor(t *testing.T) {
	cfg := &Config{EraDurationInSeconds: 180 * time.Second, EraDelayTime: 600 * time.Second}
	tr := NewEraTracker(testLogger(), nil, cfg)

	past := time.Now().Add(-30 * time.Second)
	tr.lastAdvanceAt = past

	elapsed := tr.StagnantFor(time.Now())
	assert.GreaterOrEqual(t, elapsed, 29*time.Second)
}

func TestEraTrackerArmWatchdogFires(t *testing.T) {
	cfg := &Config{EraDurationInSeconds: 180 * time.Second, EraDelayTime: 600 * time.Second}
	tr := NewEraTracker(testLogger(), nil, cfg)

	fired := make(chan struct{}, 1)
	tr.ArmWatchdog(10*time.Millisecond, func() { fired <- struct{}{} })
	defer tr.StopWatchdog()

	select {
	case <-fired:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("watchdog did not fire")
	}
}

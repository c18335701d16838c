package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthcheckLabelSpacesOnlyNotWorking(t *testing.T) {
	assert.Equal(t, "not working", StatusNotWorking.healthcheckLabel())
	assert.Equal(t, "starting", StatusStarting.healthcheckLabel())
	assert.Equal(t, "monitoring", StatusMonitoring.healthcheckLabel())
	assert.Equal(t, "processing", StatusProcessing.healthcheckLabel())
	assert.Equal(t, "recovering", StatusRecovering.healthcheckLabel())
	assert.Equal(t, "terminated", StatusTerminated.healthcheckLabel())
}

func TestEndpointStateBlacklisted(t *testing.T) {
	now := time.Now()
	s := EndpointState{URL: "ws://x"}
	assert.False(t, s.Blacklisted(now))

	s.BlacklistedUntil = now.Add(time.Minute)
	assert.True(t, s.Blacklisted(now))
	assert.False(t, s.Blacklisted(now.Add(2*time.Minute)))
}

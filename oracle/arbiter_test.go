package oracle

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestFailureArbiterBlacklistBound is grounded on universal property 4:
// an endpoint with consecutive_failures > threshold is not queried again
// until now >= blacklisted_until.
func TestFailureArbiterBlacklistBound(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	entered := a.ReportFailures("ws://relay", 11, now)
	require.True(t, entered)
	assert.True(t, a.Blacklisted("ws://relay", now))
	assert.True(t, a.Blacklisted("ws://relay", now.Add(59*time.Second)))
	assert.False(t, a.Blacklisted("ws://relay", now.Add(61*time.Second)))
}

func TestFailureArbiterDoesNotReenterWhileBlacklisted(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	entered := a.ReportFailures("ws://relay", 11, now)
	require.True(t, entered)

	entered = a.ReportFailures("ws://relay", 12, now.Add(1*time.Second))
	assert.False(t, entered, "already in recovery, should not re-trigger")
}

func TestFailureArbiterExpireCooldowns(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	a.ReportFailures("ws://relay", 11, now)
	assert.True(t, a.AnyBlacklisted(now))

	a.ExpireCooldowns(now.Add(61 * time.Second))
	assert.False(t, a.AnyBlacklisted(now.Add(61*time.Second)))
}

func TestFailureArbiterReportSuccessResetsCounter(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	a.ReportFailures("ws://relay", 5, now)
	a.ReportSuccess("ws://relay")

	a.mu.Lock()
	failures := a.endpoints["ws://relay"].ConsecutiveFailures
	a.mu.Unlock()
	assert.Zero(t, failures)
}

// TestFailureArbiterIncrementFailureBlacklistBound exercises
// IncrementFailure, the method Reporter.noteFailure actually calls on the
// production path (ReportFailures above is exercised only by these tests,
// never by reporter.go). Same property as
// TestFailureArbiterBlacklistBound, driven one failure at a time instead
// of via a pre-computed count.
func TestFailureArbiterIncrementFailureBlacklistBound(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	var entered bool
	for i := 0; i < 11; i++ {
		entered = a.IncrementFailure("ws://relay", now)
	}
	require.True(t, entered, "11th consecutive failure should cross the threshold of 10")
	assert.True(t, a.Blacklisted("ws://relay", now))
	assert.True(t, a.Blacklisted("ws://relay", now.Add(59*time.Second)))
	assert.False(t, a.Blacklisted("ws://relay", now.Add(61*time.Second)))
}

func TestFailureArbiterIncrementFailureDoesNotReenterWhileBlacklisted(t *testing.T) {
	a := NewFailureArbiter(testLogger(), 10, 60*time.Second)
	now := time.Now()

	for i := 0; i < 11; i++ {
		a.IncrementFailure("ws://relay", now)
	}
	require.True(t, a.Blacklisted("ws://relay", now))

	entered := a.IncrementFailure("ws://relay", now.Add(1*time.Second))
	assert.False(t, entered, "already in recovery, should not re-trigger")
}

// TestReporterNoteFailureBlacklistsRelayEndpoint drives noteFailure, the
// Reporter method that wraps IncrementFailure, confirming the ws_url_relay
// endpoint (not ws_url_para) is the one blacklisted when the error wraps
// ErrRelayData, and that it stays blacklisted for cfg.Timeout (the
// constructor argument wired from the TIMEOUT env var, not
// cfg.EraDelayTime — see DESIGN.md's "Corrections from review").
func TestReporterNoteFailureBlacklistsRelayEndpoint(t *testing.T) {
	cfg := &Config{
		WSURLRelay: "ws://relay",
		WSURLPara:  "ws://para",
	}
	r := &Reporter{
		log:     testLogger(),
		cfg:     cfg,
		arbiter: NewFailureArbiter(testLogger(), 0, 60*time.Second),
		metrics: NewMetrics("test"),
	}

	r.noteFailure(ErrRelayData)

	now := time.Now()
	assert.True(t, r.arbiter.Blacklisted(cfg.WSURLRelay, now))
	assert.False(t, r.arbiter.Blacklisted(cfg.WSURLPara, now))
	assert.Equal(t, StatusRecovering, r.Status())
}

// TestReporterNoteFailureBlacklistsParaEndpoint confirms an error that
// does not wrap ErrRelayData/ErrTransport is attributed to the parachain
// endpoint instead.
func TestReporterNoteFailureBlacklistsParaEndpoint(t *testing.T) {
	cfg := &Config{
		WSURLRelay: "ws://relay",
		WSURLPara:  "ws://para",
	}
	r := &Reporter{
		log:     testLogger(),
		cfg:     cfg,
		arbiter: NewFailureArbiter(testLogger(), 0, 60*time.Second),
		metrics: NewMetrics("test"),
	}

	r.noteFailure(ErrPara)

	now := time.Now()
	assert.True(t, r.arbiter.Blacklisted(cfg.WSURLPara, now))
	assert.False(t, r.arbiter.Blacklisted(cfg.WSURLRelay, now))
}

package oracle

import (
	"log/slog"
	"sync"
	"time"
)

// FailureArbiter tracks per-endpoint consecutive failures and blacklists an
// endpoint with a timed cooldown once it crosses the configured threshold,
// the same shape ethmonitor uses internally to fall back from streaming to
// polling, generalized here to "suppress calls to this endpoint."
type FailureArbiter struct {
	log       *slog.Logger
	threshold uint32
	cooldown  time.Duration

	mu        sync.Mutex
	endpoints map[string]*EndpointState
}

func NewFailureArbiter(log *slog.Logger, threshold uint32, cooldown time.Duration) *FailureArbiter {
	return &FailureArbiter{
		log:       log,
		threshold: threshold,
		cooldown:  cooldown,
		endpoints: map[string]*EndpointState{},
	}
}

func (a *FailureArbiter) stateFor(url string) *EndpointState {
	s, ok := a.endpoints[url]
	if !ok {
		s = &EndpointState{URL: url}
		a.endpoints[url] = s
	}
	return s
}

// ReportFailures sets the endpoint's consecutive failure count (as
// observed from its ChainClient) and blacklists it if the threshold is
// crossed. Returns true if this call newly entered recovery for url.
func (a *FailureArbiter) ReportFailures(url string, consecutiveFailures uint32, now time.Time) (enteredRecovery bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stateFor(url)
	wasBlacklisted := s.Blacklisted(now)
	s.ConsecutiveFailures = consecutiveFailures

	if consecutiveFailures > a.threshold && !wasBlacklisted {
		s.BlacklistedUntil = now.Add(a.cooldown)
		a.log.Warn("oracle: endpoint entering recovery", "url", url, "consecutive_failures", consecutiveFailures)
		return true
	}
	return false
}

// ReportSuccess resets the endpoint's failure bookkeeping on a successful call.
func (a *FailureArbiter) ReportSuccess(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stateFor(url)
	s.ConsecutiveFailures = 0
}

// IncrementFailure bumps url's consecutive failure count by one and
// blacklists it if the threshold is crossed. Returns true if this call
// newly entered recovery for url.
func (a *FailureArbiter) IncrementFailure(url string, now time.Time) (enteredRecovery bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stateFor(url)
	wasBlacklisted := s.Blacklisted(now)
	s.ConsecutiveFailures++

	if s.ConsecutiveFailures > a.threshold && !wasBlacklisted {
		s.BlacklistedUntil = now.Add(a.cooldown)
		a.log.Warn("oracle: endpoint entering recovery", "url", url, "consecutive_failures", s.ConsecutiveFailures)
		return true
	}
	return false
}

// Blacklisted reports whether url is currently suppressed.
func (a *FailureArbiter) Blacklisted(url string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateFor(url).Blacklisted(now)
}

// AnyBlacklisted reports whether any tracked endpoint is currently
// suppressed; the Reporter FSM stays in (or enters) `recovering` while
// this is true.
func (a *FailureArbiter) AnyBlacklisted(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.endpoints {
		if s.Blacklisted(now) {
			return true
		}
	}
	return false
}

// ExpireCooldowns clears blacklist entries whose deadline has passed. Call
// once per monitoring tick.
func (a *FailureArbiter) ExpireCooldowns(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for url, s := range a.endpoints {
		if !s.BlacklistedUntil.IsZero() && !s.Blacklisted(now) {
			a.log.Info("oracle: endpoint cooldown expired", "url", url)
			s.BlacklistedUntil = time.Time{}
		}
	}
}

package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goware/superr"

	"github.com/lidofinance/dot-ksm-oracle/relaychain"
)

// EraSnapshot is the boundary block an era's reads must be consistent
// against, plus bookkeeping for the skew guards.
type EraSnapshot struct {
	EraID               uint64
	BlockNumber         uint64
	BlockHash           common.Hash
	ObservedAt          time.Time
}

// EraTracker computes the relay chain's current era, pins the
// era-boundary block hash used for snapshot-consistent reads, and guards
// against both local stagnation and relay/contract skew.
type EraTracker struct {
	log     *slog.Logger
	relay   *relaychain.Client
	cfg     *Config

	mu       sync.Mutex
	current  EraSnapshot
	lastAdvanceAt time.Time

	watchdog   *time.Timer
	watchdogFn func()
}

func NewEraTracker(log *slog.Logger, relay *relaychain.Client, cfg *Config) *EraTracker {
	return &EraTracker{
		log:           log,
		relay:         relay,
		cfg:           cfg,
		lastAdvanceAt: time.Now(),
	}
}

// Current returns the last recorded era snapshot.
func (t *EraTracker) Current() EraSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Poll queries the relay chain for its active era and, if it has advanced
// past the last recorded one, pins a new snapshot at the era-boundary
// block. Returns whether the era advanced.
func (t *EraTracker) Poll(ctx context.Context) (advanced bool, snapshot EraSnapshot, err error) {
	head, err := t.relay.CurrentBlockHash(ctx)
	if err != nil {
		return false, EraSnapshot{}, superr.New(ErrTransport, err)
	}

	eraID, err := t.relay.ActiveEra(ctx, head)
	if err != nil {
		return false, EraSnapshot{}, superr.New(ErrRelayData, err)
	}

	t.mu.Lock()
	prevEra := t.current.EraID
	haveSnapshot := !t.current.ObservedAt.IsZero()
	t.mu.Unlock()

	if haveSnapshot && eraID <= prevEra {
		return false, t.Current(), nil
	}

	blockNumber := eraID*t.cfg.EraDurationInBlocks + t.cfg.InitialBlockNumber
	blockHash, err := t.relay.BlockHashAt(ctx, blockNumber)
	if err != nil {
		return false, EraSnapshot{}, superr.New(ErrTransport, fmt.Errorf("fetching era-boundary block %d: %w", blockNumber, err))
	}

	snap := EraSnapshot{
		EraID:       eraID,
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
		ObservedAt:  time.Now(),
	}

	t.mu.Lock()
	t.current = snap
	t.lastAdvanceAt = snap.ObservedAt
	t.mu.Unlock()

	t.log.Info("oracle: era advanced", "era_id", eraID, "block_number", blockNumber, "block_hash", blockHash)
	return true, snap, nil
}

// StagnantFor reports how long it has been since the tracker last observed
// an era advance; EraUpdateDelay guards against this growing unbounded.
func (t *EraTracker) StagnantFor(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.lastAdvanceAt)
}

// CheckSkew compares the contract's own era against the relay's observed
// era; if the contract trails by more than cfg.EraDelayTime of wall time,
// it returns ErrSkewFatal (the caller applies the grace period before
// shutting down).
func (t *EraTracker) CheckSkew(contractEraID uint64) error {
	relayEraID := t.Current().EraID
	if relayEraID <= contractEraID {
		return nil
	}
	// Each era is cfg.EraDurationInSeconds long; trailing eras translate
	// directly into trailing wall time for the skew guard.
	trailing := time.Duration(relayEraID-contractEraID) * t.cfg.EraDurationInSeconds
	if trailing > t.cfg.EraDelayTime {
		return superr.New(ErrSkewFatal, fmt.Errorf("contract era %d trails relay era %d by %s (limit %s)",
			contractEraID, relayEraID, trailing, t.cfg.EraDelayTime))
	}
	return nil
}

// ArmWatchdog (re)starts the watchdog timer; onFire is invoked exactly
// once, from its own goroutine, if the timer is not reset or stopped
// first. Callers should call ArmWatchdog again on every observed era
// change to keep the window rolling, matching the "force-reconnect on
// stagnation" behavior documented for the watchdog.
func (t *EraTracker) ArmWatchdog(period time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watchdog != nil {
		t.watchdog.Stop()
	}
	t.watchdogFn = onFire
	t.watchdog = time.AfterFunc(period, func() {
		t.log.Warn("oracle: watchdog fired, forcing relay reconnect", "period", period)
		t.watchdogFn()
	})
}

// StopWatchdog disarms the watchdog, e.g. during shutdown.
func (t *EraTracker) StopWatchdog() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watchdog != nil {
		t.watchdog.Stop()
		t.watchdog = nil
	}
}

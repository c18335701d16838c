package oracle

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/dot-ksm-oracle/relaychain"
)

// Reporter is the top-level orchestrator: it sequences EraTracker,
// StashDiscovery, ReportBuilder, and Submitter per era, and owns the
// daemon's externally-visible status.
//
// States: not_working -> starting -> monitoring <-> processing, with
// recovering overlaid as an orthogonal flag rather than a peer state, so
// entry/exit is clean from any base state.
type Reporter struct {
	log *slog.Logger
	cfg *Config

	relay *relaychain.Client
	para  *OracleMaster

	arbiter  *FailureArbiter
	eras     *EraTracker
	stashes  *StashDiscovery
	builder  *ReportBuilder
	submitter *Submitter
	metrics  *Metrics

	mu              sync.RWMutex
	status          ReporterStatus
	recovering      bool
	lastEraReported uint64
	lastFailedEra   uint64

	skewSince time.Time
}

type ReporterDeps struct {
	Log       *slog.Logger
	Config    *Config
	Relay     *relaychain.Client
	Para      *OracleMaster
	Arbiter   *FailureArbiter
	Eras      *EraTracker
	Stashes   *StashDiscovery
	Builder   *ReportBuilder
	Submitter *Submitter
	Metrics   *Metrics
}

func NewReporter(deps ReporterDeps) *Reporter {
	return &Reporter{
		log:       deps.Log,
		cfg:       deps.Config,
		relay:     deps.Relay,
		para:      deps.Para,
		arbiter:   deps.Arbiter,
		eras:      deps.Eras,
		stashes:   deps.Stashes,
		builder:   deps.Builder,
		submitter: deps.Submitter,
		metrics:   deps.Metrics,
		status:    StatusNotWorking,
	}
}

func (r *Reporter) Status() ReporterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.recovering {
		return StatusRecovering
	}
	return r.status
}

func (r *Reporter) setStatus(s ReporterStatus) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	r.metrics.SetStatus(s)
	r.log.Info("oracle: status changed", "status", s)
}

func (r *Reporter) setRecovering(v bool) {
	r.mu.Lock()
	changed := r.recovering != v
	r.recovering = v
	r.mu.Unlock()
	if changed {
		r.metrics.SetRecoveryMode(v)
		if v {
			r.log.Warn("oracle: entering recovery mode")
		} else {
			r.log.Info("oracle: leaving recovery mode")
		}
	}
}

// Run drives the FSM until ctx is cancelled or tick reports SkewFatal. It
// returns that error, or nil on graceful shutdown; any other tick error is
// logged and the loop goes on.
func (r *Reporter) Run(ctx context.Context) error {
	r.setStatus(StatusStarting)

	r.armWatchdog()
	defer r.eras.StopWatchdog()

	r.setStatus(StatusMonitoring)

	ticker := time.NewTicker(r.cfg.FrequencyOfRequests)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.setStatus(StatusTerminated)
			return nil

		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				if errors.Is(err, ErrSkewFatal) {
					r.setStatus(StatusTerminated)
					return err
				}
				r.log.Error("oracle: tick error", "error", err)
			}
		}
	}
}

func (r *Reporter) tick(ctx context.Context) error {
	now := time.Now()

	r.arbiter.ExpireCooldowns(now)
	r.setRecovering(r.arbiter.AnyBlacklisted(now))
	if r.arbiter.Blacklisted(r.cfg.WSURLRelay, now) || r.arbiter.Blacklisted(r.cfg.WSURLPara, now) {
		return nil
	}

	advanced, snapshot, err := r.eras.Poll(ctx)
	if err != nil {
		r.noteFailure(err)
		return err
	}
	r.noteSuccess(r.cfg.WSURLRelay)
	r.metrics.SetActiveEraID(snapshot.EraID)
	r.metrics.SetPreviousEraChangeBlockNumber(snapshot.BlockNumber)

	if r.eras.StagnantFor(now) > r.cfg.EraUpdateDelay {
		return ErrSkewFatal
	}

	contractEraID, err := r.para.ContractEraID(ctx)
	if err != nil {
		r.noteFailure(err)
		return err
	}
	r.noteSuccess(r.cfg.WSURLPara)

	if balance, err := r.submitter.Balance(ctx); err != nil {
		r.log.Warn("oracle: failed reading oracle balance", "error", err)
	} else {
		r.metrics.SetOracleBalance(weiToFloat(balance))
	}

	if err := r.eras.CheckSkew(contractEraID); err != nil {
		if r.skewSince.IsZero() {
			r.skewSince = now
		}
		if now.Sub(r.skewSince) > r.cfg.WaitingTimeBeforeShutdown {
			return err
		}
		return nil
	}
	r.skewSince = time.Time{}

	if !advanced {
		return nil
	}
	r.armWatchdog()

	reportableEraID, err := r.para.CurrentEraID(ctx)
	if err != nil {
		r.noteFailure(err)
		return err
	}
	if reportableEraID != snapshot.EraID {
		return nil
	}

	stashes, err := r.stashes.Discover(ctx)
	if err != nil {
		r.noteFailure(err)
		return err
	}
	if len(stashes) == 0 {
		r.log.Info("oracle: no stashes to report for era", "era_id", snapshot.EraID)
		return nil
	}

	return r.processEra(ctx, snapshot, stashes)
}

func (r *Reporter) processEra(ctx context.Context, snapshot EraSnapshot, stashes []common.Hash) error {
	r.setStatus(StatusProcessing)
	defer r.setStatus(StatusMonitoring)

	allSucceeded := true
	totalStashesFreeBalance := new(big.Int)
	for _, stash := range stashes {
		report, err := r.builder.Build(ctx, stash, snapshot.BlockHash)
		if err != nil {
			r.log.Error("oracle: skipping stash for era, report build failed", "era_id", snapshot.EraID, "stash", stash, "error", err)
			r.metrics.IncRelayExceptions()
			allSucceeded = false
			continue
		}
		if report.StashBalance != nil {
			totalStashesFreeBalance.Add(totalStashesFreeBalance, report.StashBalance)
		}

		outcome, err := r.submitter.Submit(ctx, snapshot.EraID, report)
		switch outcome {
		case OutcomeSuccess:
			r.metrics.IncTxSuccess()
			r.metrics.ObserveTimeUntilLastEraReport(time.Since(snapshot.ObservedAt))
		case OutcomeAlreadyReported:
			// neutral: neither a fresh success nor a failure for this era
		case OutcomeSkippedDebug:
			// ORACLE_MODE=DEBUG built but never submitted the report, so this
			// era never actually reached success for this stash.
			allSucceeded = false
		case OutcomeRevert:
			r.metrics.IncTxRevert()
			r.mu.Lock()
			r.lastFailedEra = snapshot.EraID
			r.mu.Unlock()
			r.metrics.SetLastFailedEra(snapshot.EraID)
			allSucceeded = false
		case OutcomeTransportError:
			r.metrics.IncParaExceptions()
			allSucceeded = false
			r.noteFailure(err)
		}
	}

	r.metrics.SetTotalStashesFreeBalance(weiToFloat(totalStashesFreeBalance))

	if allSucceeded && !r.cfg.DebugMode {
		r.mu.Lock()
		r.lastEraReported = snapshot.EraID
		r.mu.Unlock()
		r.metrics.SetLastEraReported(snapshot.EraID)
	}

	return nil
}

// weiToFloat renders a wei-denominated balance as ether for the gauge
// surface; precision beyond float64 isn't meaningful for a dashboard
// value.
func weiToFloat(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	v, _ := f.Float64()
	return v
}

func (r *Reporter) noteFailure(err error) {
	var url string
	switch {
	case errors.Is(err, ErrRelayData), errors.Is(err, ErrTransport):
		url = r.cfg.WSURLRelay
	default:
		url = r.cfg.WSURLPara
	}
	if r.arbiter.IncrementFailure(url, time.Now()) {
		r.setRecovering(true)
	}
}

func (r *Reporter) noteSuccess(url string) {
	r.arbiter.ReportSuccess(url)
}

// armWatchdog (re)arms the era-advance watchdog. onFire closes the relay
// client's connection, which the client redials on its next Call, and
// immediately rearms itself, so the window keeps rolling across repeated
// stagnation rather than disarming after the first fire.
func (r *Reporter) armWatchdog() {
	r.eras.ArmWatchdog(r.cfg.WatchdogPeriod(5*time.Second), func() {
		reconnectCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := r.relay.Close(); err != nil {
			r.log.Warn("oracle: error closing relay client before reconnect", "error", err)
		}
		_ = reconnectCtx // unused: the closed client redials on its next Call
		r.armWatchdog()
	})
}

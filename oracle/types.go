package oracle

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StakeStatus mirrors the OracleMaster contract's enum for a stash's role
// at the snapshot block.
type StakeStatus uint8

const (
	StakeStatusChill StakeStatus = iota
	StakeStatusNominator
	StakeStatusValidator
	StakeStatusNone
)

// UnlockChunk is one entry of ReportTuple.Unlocking.
type UnlockChunk struct {
	Balance *big.Int
	Era     uint64
}

// ReportTuple is the per-stash, per-era payload submitted to
// OracleMaster.reportRelay. Field names and order match the ABI's
// OracleData tuple in assets/oracle.json.
type ReportTuple struct {
	StashAccount      common.Hash
	ControllerAccount common.Hash
	StakeStatus       StakeStatus
	ActiveBalance     *big.Int
	TotalBalance      *big.Int
	Unlocking         []UnlockChunk
	ClaimedRewards    []uint32
	StashBalance      *big.Int
	SlashingSpans     uint32
}

// EndpointState tracks liveness for a single ChainClient; FailureArbiter
// owns the transitions between the zero value and a blacklisted one.
type EndpointState struct {
	URL                 string
	ConsecutiveFailures uint32
	BlacklistedUntil    time.Time
}

func (e EndpointState) Blacklisted(now time.Time) bool {
	return !e.BlacklistedUntil.IsZero() && now.Before(e.BlacklistedUntil)
}

// ReporterStatus is the FSM's externally-visible status string, exposed
// via the healthcheck surface.
type ReporterStatus string

const (
	StatusNotWorking ReporterStatus = "not_working"
	StatusStarting   ReporterStatus = "starting"
	StatusMonitoring ReporterStatus = "monitoring"
	StatusProcessing ReporterStatus = "processing"
	StatusRecovering ReporterStatus = "recovering"
	StatusTerminated ReporterStatus = "terminated"
)

// healthcheckLabel renders the healthcheck surface's documented wire form
// ("not working" rather than "not_working") for the one state the HTTP
// table spells with a space.
func (s ReporterStatus) healthcheckLabel() string {
	if s == StatusNotWorking {
		return "not working"
	}
	return string(s)
}

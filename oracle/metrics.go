package oracle

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Metrics holds the daemon's exported gauges and counters. There is no
// Prometheus client library anywhere in this module's dependency tree, so
// Metrics renders its own minimal text exposition format rather than
// pulling one in for a handful of values.
type Metrics struct {
	mu sync.Mutex

	status          ReporterStatus
	recoveryMode    bool
	activeEraID     uint64
	lastEraReported uint64
	lastFailedEra   uint64
	lastEraBlock    uint64

	timeUntilLastEraReport time.Duration

	totalStashesFreeBalance float64
	oracleBalance           float64

	txRevert  uint64
	txSuccess uint64

	paraExceptions  uint64
	relayExceptions uint64

	agent string
}

func NewMetrics(agent string) *Metrics {
	return &Metrics{agent: agent}
}

func (m *Metrics) SetStatus(s ReporterStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *Metrics) SetRecoveryMode(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryMode = v
}

func (m *Metrics) SetActiveEraID(eraID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeEraID = eraID
}

func (m *Metrics) SetLastEraReported(eraID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEraReported = eraID
}

func (m *Metrics) SetLastFailedEra(eraID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFailedEra = eraID
}

func (m *Metrics) SetPreviousEraChangeBlockNumber(block uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEraBlock = block
}

func (m *Metrics) ObserveTimeUntilLastEraReport(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeUntilLastEraReport = d
}

func (m *Metrics) SetTotalStashesFreeBalance(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalStashesFreeBalance = v
}

func (m *Metrics) SetOracleBalance(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oracleBalance = v
}

func (m *Metrics) IncTxRevert() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txRevert++
}

func (m *Metrics) IncTxSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txSuccess++
}

func (m *Metrics) IncParaExceptions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paraExceptions++
}

func (m *Metrics) IncRelayExceptions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayExceptions++
}

// WriteTo renders the current metric values as Prometheus text exposition
// format, in the order spec'd for the /metrics surface.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recovery := 0
	if m.recoveryMode {
		recovery = 1
	}

	var n int
	var err error
	write := func(format string, args ...any) {
		if err != nil {
			return
		}
		var c int
		c, err = fmt.Fprintf(w, format, args...)
		n += c
	}

	write("# HELP is_recovery_mode_active Whether the oracle is currently in recovery mode.\n")
	write("# TYPE is_recovery_mode_active gauge\n")
	write("is_recovery_mode_active{agent=%q} %d\n", m.agent, recovery)

	write("# HELP active_era_id Current relay chain era id as last observed.\n")
	write("# TYPE active_era_id gauge\n")
	write("active_era_id{agent=%q} %d\n", m.agent, m.activeEraID)

	write("# HELP last_era_reported Last era id successfully reported to the contract.\n")
	write("# TYPE last_era_reported gauge\n")
	write("last_era_reported{agent=%q} %d\n", m.agent, m.lastEraReported)

	write("# HELP last_failed_era Last era id for which a report submission reverted.\n")
	write("# TYPE last_failed_era gauge\n")
	write("last_failed_era{agent=%q} %d\n", m.agent, m.lastFailedEra)

	write("# HELP previous_era_change_block_number Relay chain block number of the last observed era boundary.\n")
	write("# TYPE previous_era_change_block_number gauge\n")
	write("previous_era_change_block_number{agent=%q} %d\n", m.agent, m.lastEraBlock)

	write("# HELP time_elapsed_until_last_era_report Seconds between era boundary observation and successful report.\n")
	write("# TYPE time_elapsed_until_last_era_report gauge\n")
	write("time_elapsed_until_last_era_report{agent=%q} %f\n", m.agent, m.timeUntilLastEraReport.Seconds())

	write("# HELP total_stashes_free_balance Sum of free balances across tracked stashes.\n")
	write("# TYPE total_stashes_free_balance gauge\n")
	write("total_stashes_free_balance{agent=%q} %f\n", m.agent, m.totalStashesFreeBalance)

	write("# HELP oracle_balance Oracle account's native balance on the parachain.\n")
	write("# TYPE oracle_balance gauge\n")
	write("oracle_balance{agent=%q} %f\n", m.agent, m.oracleBalance)

	write("# HELP tx_revert Count of reportRelay transactions that reverted.\n")
	write("# TYPE tx_revert counter\n")
	write("tx_revert{agent=%q} %d\n", m.agent, m.txRevert)

	write("# HELP tx_success Count of reportRelay transactions that succeeded.\n")
	write("# TYPE tx_success counter\n")
	write("tx_success{agent=%q} %d\n", m.agent, m.txSuccess)

	write("# HELP para_exceptions_count Count of errors originating from the parachain endpoint.\n")
	write("# TYPE para_exceptions_count counter\n")
	write("para_exceptions_count{agent=%q} %d\n", m.agent, m.paraExceptions)

	write("# HELP relay_exceptions_count Count of errors originating from the relay chain endpoint.\n")
	write("# TYPE relay_exceptions_count counter\n")
	write("relay_exceptions_count{agent=%q} %d\n", m.agent, m.relayExceptions)

	return int64(n), err
}

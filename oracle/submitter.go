package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goware/superr"

	"github.com/lidofinance/dot-ksm-oracle/ethrpc"
	"github.com/lidofinance/dot-ksm-oracle/ethtxn"
	"github.com/lidofinance/dot-ksm-oracle/ethwallet"
)

// SubmitOutcome classifies the result of one reportRelay attempt.
type SubmitOutcome int

const (
	OutcomeSuccess SubmitOutcome = iota
	OutcomeAlreadyReported
	OutcomeRevert
	OutcomeTransportError
	OutcomeSkippedDebug
)

// Submitter signs and broadcasts reportRelay transactions to the
// parachain, sequentially (no parallel submission — nonce safety), and
// classifies the outcome of each.
type Submitter struct {
	log      *slog.Logger
	provider *ethrpc.Provider
	wallet   *ethwallet.Wallet
	contract *OracleMaster
	cfg      *Config
}

func NewSubmitter(log *slog.Logger, provider *ethrpc.Provider, wallet *ethwallet.Wallet, contract *OracleMaster, cfg *Config) *Submitter {
	return &Submitter{log: log, provider: provider, wallet: wallet, contract: contract, cfg: cfg}
}

// Submit reports one stash's tuple for eraID. It first checks
// isReportedLastEra for idempotence against restarts and races, then
// (unless ORACLE_MODE=DEBUG) signs, broadcasts, and waits for the
// receipt.
func (s *Submitter) Submit(ctx context.Context, eraID uint64, report ReportTuple) (SubmitOutcome, error) {
	lastEra, isReported, err := s.contract.IsReportedLastEra(ctx, s.wallet.Address(), report.StashAccount)
	if err != nil {
		return OutcomeTransportError, err
	}
	if isReported && lastEra == eraID {
		s.log.Info("oracle: stash already reported for era, skipping", "era_id", eraID, "stash", report.StashAccount)
		return OutcomeAlreadyReported, nil
	}

	calldata, err := s.contract.EncodeReportRelay(eraID, report)
	if err != nil {
		return OutcomeTransportError, fmt.Errorf("encoding reportRelay calldata: %w", err)
	}

	if s.cfg.DebugMode {
		s.log.Info("oracle: ORACLE_MODE=DEBUG, built report but not submitting",
			"era_id", eraID, "stash", report.StashAccount, "report", report)
		return OutcomeSkippedDebug, nil
	}

	to := s.contract.Address()
	txnReq := &ethtxn.TransactionRequest{
		From:     s.wallet.Address(),
		To:       &to,
		GasLimit: s.cfg.GasLimit,
		GasTip:   s.cfg.MaxPriorityFeePerGas,
		Data:     calldata,
	}

	rawTx, err := ethtxn.NewTransaction(ctx, s.provider, txnReq)
	if err != nil {
		return OutcomeTransportError, superr.New(ErrPara, fmt.Errorf("building transaction: %w", err))
	}

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return OutcomeTransportError, superr.New(ErrPara, fmt.Errorf("fetching chain id: %w", err))
	}

	signedTx, err := s.wallet.SignTx(rawTx, chainID)
	if err != nil {
		return OutcomeTransportError, fmt.Errorf("signing transaction: %w", err)
	}

	_, waitReceipt, err := ethtxn.SendTransaction(ctx, s.provider, signedTx)
	if err != nil {
		return OutcomeTransportError, superr.New(ErrPara, fmt.Errorf("broadcasting transaction: %w", err))
	}

	receipt, err := waitReceipt(ctx)
	if err != nil {
		return OutcomeTransportError, superr.New(ErrPara, fmt.Errorf("waiting for receipt: %w", err))
	}

	if receipt.Status == types.ReceiptStatusFailed {
		s.log.Warn("oracle: reportRelay reverted", "era_id", eraID, "stash", report.StashAccount, "tx_hash", receipt.TxHash)
		return OutcomeRevert, superr.New(ErrTxRevert, fmt.Errorf("tx %s reverted", receipt.TxHash))
	}

	s.log.Info("oracle: reportRelay succeeded", "era_id", eraID, "stash", report.StashAccount, "tx_hash", receipt.TxHash)
	return OutcomeSuccess, nil
}

// Balance returns the oracle's parachain native balance, used for the
// oracle_balance gauge.
func (s *Submitter) Balance(ctx context.Context) (*big.Int, error) {
	return s.provider.BalanceAt(ctx, s.wallet.Address(), nil)
}

package oracle

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/lidofinance/dot-ksm-oracle/ethartifact"
	"github.com/lidofinance/dot-ksm-oracle/ethcontract"
	"github.com/lidofinance/dot-ksm-oracle/ethrpc"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/goware/superr"
)

// OracleMaster is a thin typed wrapper over the ABI subset described in the
// daemon's external interfaces: read accessors for era bookkeeping and the
// stash set, plus the reportRelay write call.
type OracleMaster struct {
	contract *ethcontract.Contract
	provider *ethrpc.Provider
	address  common.Address
}

// NewOracleMaster loads the ABI at abiPath and binds it to address on
// provider. Keeping the ABI path configurable (rather than embedding it)
// preserves the daemon's ability to point at a redeployed or upgraded
// contract without a rebuild.
func NewOracleMaster(abiPath string, address common.Address, provider *ethrpc.Provider) (*OracleMaster, error) {
	data, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, superr.New(ErrConfig, fmt.Errorf("reading ABI_PATH %s: %w", abiPath, err))
	}

	artifact, err := ethartifact.ParseArtifactJSON(string(data))
	if err != nil {
		return nil, superr.New(ErrConfig, fmt.Errorf("parsing ABI_PATH %s: %w", abiPath, err))
	}

	contract := ethcontract.NewContract(address, artifact.ABI, provider, provider, nil)

	return &OracleMaster{contract: contract, provider: provider, address: address}, nil
}

func (o *OracleMaster) Address() common.Address {
	return o.address
}

// AnchorTriple reads the era-boundary anchor the contract publishes.
type AnchorTriple struct {
	AnchorEraID    uint64
	AnchorTimestamp uint64
	SecondsPerEra  uint64
}

func (o *OracleMaster) AnchorTriple(ctx context.Context) (AnchorTriple, error) {
	var anchor AnchorTriple
	if err := o.call(ctx, []any{&anchor.AnchorEraID}, "ANCHOR_ERA_ID"); err != nil {
		return AnchorTriple{}, err
	}
	if err := o.call(ctx, []any{&anchor.AnchorTimestamp}, "ANCHOR_TIMESTAMP"); err != nil {
		return AnchorTriple{}, err
	}
	if err := o.call(ctx, []any{&anchor.SecondsPerEra}, "SECONDS_PER_ERA"); err != nil {
		return AnchorTriple{}, err
	}
	return anchor, nil
}

// CurrentEraID returns the era the contract is currently ready to accept
// reports for.
func (o *OracleMaster) CurrentEraID(ctx context.Context) (uint64, error) {
	var eraID uint64
	if err := o.call(ctx, []any{&eraID}, "getCurrentEraId"); err != nil {
		return 0, err
	}
	return eraID, nil
}

// ContractEraID returns the contract's own notion of the active era,
// separate from getCurrentEraId's reportable era.
func (o *OracleMaster) ContractEraID(ctx context.Context) (uint64, error) {
	var eraID uint64
	if err := o.call(ctx, []any{&eraID}, "eraId"); err != nil {
		return 0, err
	}
	return eraID, nil
}

// StashAccounts returns the authoritative stash set.
func (o *OracleMaster) StashAccounts(ctx context.Context) ([]common.Hash, error) {
	var stashes []common.Hash
	if err := o.call(ctx, []any{&stashes}, "getStashAccounts"); err != nil {
		return nil, err
	}
	return stashes, nil
}

// IsReportedLastEra reports whether oracleMember has already reported
// stashAccount for the era it last reported, and which era that was.
func (o *OracleMaster) IsReportedLastEra(ctx context.Context, oracleMember common.Address, stashAccount common.Hash) (lastEra uint64, isReported bool, err error) {
	if err := o.call(ctx, []any{&lastEra, &isReported}, "isReportedLastEra", oracleMember, stashAccount); err != nil {
		return 0, false, err
	}
	return lastEra, isReported, nil
}

// EncodeReportRelay ABI-encodes the reportRelay call for eraID and report.
func (o *OracleMaster) EncodeReportRelay(eraID uint64, report ReportTuple) ([]byte, error) {
	abiReport := struct {
		StashAccount      [32]byte
		ControllerAccount [32]byte
		StakeStatus       uint8
		ActiveBalance     *big.Int
		TotalBalance      *big.Int
		Unlocking         []struct {
			Balance *big.Int
			Era     uint64
		}
		ClaimedRewards []uint32
		StashBalance   *big.Int
		SlashingSpans  uint32
	}{
		StashAccount:      report.StashAccount,
		ControllerAccount: report.ControllerAccount,
		StakeStatus:       uint8(report.StakeStatus),
		ActiveBalance:     report.ActiveBalance,
		TotalBalance:      report.TotalBalance,
		ClaimedRewards:    report.ClaimedRewards,
		StashBalance:      report.StashBalance,
		SlashingSpans:     report.SlashingSpans,
	}
	for _, u := range report.Unlocking {
		abiReport.Unlocking = append(abiReport.Unlocking, struct {
			Balance *big.Int
			Era     uint64
		}{Balance: u.Balance, Era: u.Era})
	}

	return o.contract.Encode("reportRelay", eraID, abiReport)
}

func (o *OracleMaster) call(ctx context.Context, results []any, method string, args ...any) error {
	opts := &bind.CallOpts{Context: ctx}
	err := o.contract.Call(opts, &results, method, args...)
	if err != nil {
		return superr.New(ErrPara, fmt.Errorf("%s: %w", method, err))
	}
	return nil
}

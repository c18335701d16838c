package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goware/superr"

	"github.com/lidofinance/dot-ksm-oracle/relaychain"
)

// ReportBuilder assembles one ReportTuple for one stash at one era
// boundary, reading every relay chain field at the same fixed block hash
// so the resulting report is internally consistent.
type ReportBuilder struct {
	relay *relaychain.Client
}

func NewReportBuilder(relay *relaychain.Client) *ReportBuilder {
	return &ReportBuilder{relay: relay}
}

// Build reads the stash's staking position from the relay chain at
// snapshotHash and assembles its ReportTuple. Decoding failures are
// wrapped as RelayDataError so the Reporter can skip just this stash.
func (b *ReportBuilder) Build(ctx context.Context, stash common.Hash, snapshotHash common.Hash) (ReportTuple, error) {
	report := ReportTuple{
		StashAccount:   stash,
		ActiveBalance:  big.NewInt(0),
		TotalBalance:   big.NewInt(0),
		StashBalance:   big.NewInt(0),
		ClaimedRewards: []uint32{},
		Unlocking:      []UnlockChunk{},
	}

	controller, bonded, err := b.relay.Bonded(ctx, stash, snapshotHash)
	if err != nil {
		return ReportTuple{}, superr.New(ErrRelayData, fmt.Errorf("bonded(%s): %w", stash, err))
	}

	if !bonded {
		report.StakeStatus = StakeStatusNone
	} else {
		report.ControllerAccount = controller

		ledger, err := b.relay.Ledger(ctx, controller, snapshotHash)
		if err != nil {
			return ReportTuple{}, superr.New(ErrRelayData, fmt.Errorf("ledger(%s): %w", controller, err))
		}
		if ledger != nil {
			report.ActiveBalance = ledger.Active
			report.TotalBalance = ledger.Total
			report.ClaimedRewards = ledger.ClaimedRewards
			for _, u := range ledger.Unlocking {
				report.Unlocking = append(report.Unlocking, UnlockChunk{Balance: u.Balance, Era: u.Era})
			}
		}

		role, err := b.relay.StakeRole(ctx, stash, snapshotHash)
		if err != nil {
			return ReportTuple{}, superr.New(ErrRelayData, fmt.Errorf("stake role(%s): %w", stash, err))
		}
		switch role {
		case relaychain.RoleValidator:
			report.StakeStatus = StakeStatusValidator
		case relaychain.RoleNominator:
			report.StakeStatus = StakeStatusNominator
		default:
			report.StakeStatus = StakeStatusChill
		}
	}

	stashBalance, err := b.relay.AccountFree(ctx, stash, snapshotHash)
	if err != nil {
		return ReportTuple{}, superr.New(ErrRelayData, fmt.Errorf("account free(%s): %w", stash, err))
	}
	report.StashBalance = stashBalance

	spans, err := b.relay.SlashingSpanCount(ctx, stash, snapshotHash)
	if err != nil {
		return ReportTuple{}, superr.New(ErrRelayData, fmt.Errorf("slashing spans(%s): %w", stash, err))
	}
	report.SlashingSpans = spans

	return report, nil
}

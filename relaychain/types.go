package relaychain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// UnlockChunk is one entry of a StakingLedger's `unlocking` sequence: an
// amount scheduled to become free at a future era.
type UnlockChunk struct {
	Balance *big.Int
	Era     uint64
}

// StakingLedger is the decoded shape of `Staking.ledger(controller)`.
type StakingLedger struct {
	Stash          common.Hash
	Total          *big.Int
	Active         *big.Int
	Unlocking      []UnlockChunk
	ClaimedRewards []uint32
}

// decodeBonded decodes `Staking.bonded(stash) -> Option<AccountId>`.
func decodeBonded(raw []byte) (controller common.Hash, present bool, err error) {
	d := newScaleDecoder(raw)
	present, err = d.OptionPresent()
	if err != nil || !present {
		return common.Hash{}, present, err
	}
	controller, err = d.AccountID()
	return controller, true, err
}

// decodeStakingLedger decodes `Staking.ledger(controller) -> Option<StakingLedger>`.
func decodeStakingLedger(raw []byte) (*StakingLedger, error) {
	d := newScaleDecoder(raw)
	present, err := d.OptionPresent()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}

	stash, err := d.AccountID()
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode ledger stash: %w", err)
	}
	total, err := d.Compact()
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode ledger total: %w", err)
	}
	active, err := d.Compact()
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode ledger active: %w", err)
	}

	unlockingLen, err := d.CompactLen()
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode unlocking length: %w", err)
	}
	unlocking := make([]UnlockChunk, 0, unlockingLen)
	for i := 0; i < unlockingLen; i++ {
		balance, err := d.Compact()
		if err != nil {
			return nil, fmt.Errorf("relaychain: decode unlocking[%d].balance: %w", i, err)
		}
		era, err := d.Compact()
		if err != nil {
			return nil, fmt.Errorf("relaychain: decode unlocking[%d].era: %w", i, err)
		}
		unlocking = append(unlocking, UnlockChunk{Balance: balance, Era: era.Uint64()})
	}

	rewardsLen, err := d.CompactLen()
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode claimed rewards length: %w", err)
	}
	rewards := make([]uint32, 0, rewardsLen)
	for i := 0; i < rewardsLen; i++ {
		era, err := d.U32()
		if err != nil {
			return nil, fmt.Errorf("relaychain: decode claimed rewards[%d]: %w", i, err)
		}
		rewards = append(rewards, era)
	}

	return &StakingLedger{
		Stash:          stash,
		Total:          total,
		Active:         active,
		Unlocking:      unlocking,
		ClaimedRewards: rewards,
	}, nil
}

// decodeAccountFree decodes the `free` field of `System.account(who).data`.
// The AccountInfo layout is `{ nonce: u32, consumers: u32, providers: u32,
// sufficients: u32, data: { free, reserved, misc_frozen, fee_frozen: u128 } }`.
func decodeAccountFree(raw []byte) (*big.Int, error) {
	d := newScaleDecoder(raw)
	if _, err := d.U32(); err != nil { // nonce
		return nil, err
	}
	if _, err := d.U32(); err != nil { // consumers
		return nil, err
	}
	if _, err := d.U32(); err != nil { // providers
		return nil, err
	}
	if _, err := d.U32(); err != nil { // sufficients
		return nil, err
	}
	freeBytes, err := d.take(16)
	if err != nil {
		return nil, fmt.Errorf("relaychain: decode account free balance: %w", err)
	}
	return leU128ToBigInt(freeBytes), nil
}

// decodeSlashingSpanIndex decodes `Staking.slashingSpans(stash) ->
// Option<SlashingSpans>`, returning just the leading `spanIndex: u32`.
func decodeSlashingSpanIndex(raw []byte) (uint32, bool, error) {
	d := newScaleDecoder(raw)
	present, err := d.OptionPresent()
	if err != nil || !present {
		return 0, present, err
	}
	idx, err := d.U32()
	return idx, true, err
}

func leU128ToBigInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

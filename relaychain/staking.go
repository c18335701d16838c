package relaychain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Bonded resolves the controller account for a stash, as of the snapshot
// block hash at. present is false if the stash is not bonded.
func (c *Client) Bonded(ctx context.Context, stash common.Hash, at common.Hash) (controller common.Hash, present bool, err error) {
	raw, err := c.Storage(ctx, stakingBondedKey(stash), at)
	if err != nil {
		return common.Hash{}, false, err
	}
	if raw == nil {
		return common.Hash{}, false, nil
	}
	return decodeBonded(raw)
}

// Ledger reads the staking ledger for a controller, as of at. Returns nil
// if the controller has no ledger (can happen transiently around
// bond/unbond boundaries).
func (c *Client) Ledger(ctx context.Context, controller common.Hash, at common.Hash) (*StakingLedger, error) {
	raw, err := c.Storage(ctx, stakingLedgerKey(controller), at)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return decodeStakingLedger(raw)
}

// AccountFree reads the free balance of an account, as of at.
func (c *Client) AccountFree(ctx context.Context, who common.Hash, at common.Hash) (*big.Int, error) {
	raw, err := c.Storage(ctx, systemAccountKey(who), at)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return big.NewInt(0), nil
	}
	return decodeAccountFree(raw)
}

// SlashingSpanCount reads the span index of a stash's active slashing
// spans record, as of at. Returns 0 if the stash has never been slashed.
func (c *Client) SlashingSpanCount(ctx context.Context, stash common.Hash, at common.Hash) (uint32, error) {
	raw, err := c.Storage(ctx, stakingSlashingSpansKey(stash), at)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	idx, _, err := decodeSlashingSpanIndex(raw)
	return idx, err
}

// StakeRole reports whether a stash is presently acting as a Validator,
// Nominator, or neither (Chill), as of at.
type StakeRole int

const (
	RoleChill StakeRole = iota
	RoleNominator
	RoleValidator
)

func (c *Client) StakeRole(ctx context.Context, stash common.Hash, at common.Hash) (StakeRole, error) {
	validatorRaw, err := c.Storage(ctx, stakingValidatorsKey(stash), at)
	if err != nil {
		return RoleChill, err
	}
	if validatorRaw != nil {
		return RoleValidator, nil
	}

	nominatorRaw, err := c.Storage(ctx, stakingNominatorsKey(stash), at)
	if err != nil {
		return RoleChill, err
	}
	if nominatorRaw != nil {
		return RoleNominator, nil
	}

	return RoleChill, nil
}

// ActiveEra reads the relay chain's current active era index.
func (c *Client) ActiveEra(ctx context.Context, at common.Hash) (uint64, error) {
	raw, err := c.Storage(ctx, stakingActiveEraKey(), at)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	d := newScaleDecoder(raw)
	era, err := d.U32()
	return uint64(era), err
}

package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// StashDiscovery queries the OracleMaster for the current stash set. It
// applies no filtering of its own; membership is entirely owned by the
// contract.
type StashDiscovery struct {
	contract *OracleMaster
}

func NewStashDiscovery(contract *OracleMaster) *StashDiscovery {
	return &StashDiscovery{contract: contract}
}

// Discover returns the current stash set as reported by the contract.
func (s *StashDiscovery) Discover(ctx context.Context) ([]common.Hash, error) {
	return s.contract.StashAccounts(ctx)
}

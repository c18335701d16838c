package oracle

import (
	"fmt"
	"os"
	"strings"

	"github.com/lidofinance/dot-ksm-oracle/ethwallet"
	"github.com/goware/superr"
)

// LoadOracleKey resolves the oracle's signing key from either
// ORACLE_PRIVATE_KEY (a 0x-prefixed hex key) or ORACLE_PRIVATE_KEY_PATH (a
// file containing the same), and wraps it in a wallet directly: a raw key
// has no master key, so no derivation path is applied.
// The key material is never logged or retained beyond the returned wallet.
func LoadOracleKey(cfg *Config) (*ethwallet.Wallet, error) {
	raw := cfg.OraclePrivateKey
	if raw == "" {
		data, err := os.ReadFile(cfg.OraclePrivateKeyPath)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("reading ORACLE_PRIVATE_KEY_PATH: %w", err))
		}
		raw = strings.TrimSpace(string(data))
	}
	raw = strings.TrimPrefix(raw, "0x")

	hdnode, err := ethwallet.NewHDNodeFromPrivateKey(raw)
	if err != nil {
		return nil, superr.New(ErrConfig, fmt.Errorf("parsing oracle private key: %w", err))
	}

	wallet, err := ethwallet.NewWalletFromHDNode(hdnode, "")
	if err != nil {
		return nil, superr.New(ErrConfig, fmt.Errorf("deriving oracle wallet: %w", err))
	}

	return wallet, nil
}

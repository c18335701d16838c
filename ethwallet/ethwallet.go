package ethwallet

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Wallet struct {
	hdnode *HDNode
	// jsonrpc *ethrpc.JSONRPC
}

// NewWalletFromHDNode binds hdnode to path. A node built directly from a raw
// private key (NewHDNodeFromPrivateKey) has no master extended key to derive
// from and is used as-is; path is ignored for that case.
func NewWalletFromHDNode(hdnode *HDNode, path string) (*Wallet, error) {
	if hdnode.masterKey == nil {
		return &Wallet{hdnode: hdnode}, nil
	}

	var err error
	var derivationPath accounts.DerivationPath

	if path == "" {
		derivationPath = DefaultBaseDerivationPath
	} else {
		derivationPath, err = ParseDerivationPath(path)
		if err != nil {
			return nil, err
		}
	}

	if err := hdnode.DerivePath(derivationPath); err != nil {
		return nil, err
	}

	return &Wallet{hdnode: hdnode}, nil
}

// Address returns the wallet's signing address.
func (w *Wallet) Address() common.Address {
	return w.hdnode.Address()
}

// PrivateKey returns the wallet's private signing key.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.hdnode.PrivateKey()
}

// SignTx signs txn for the given chain with the wallet's private key.
func (w *Wallet) SignTx(txn *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.NewLondonSigner(chainID)
	return types.SignTx(txn, signer, w.PrivateKey())
}

func NewWalletFromRandomEntropy(bitSize int, path string) (*Wallet, error) {
	hdnode, err := NewHDNodeFromRandomEntropy(bitSize, nil)
	if err != nil {
		return nil, err
	}
	return NewWalletFromHDNode(hdnode, path)
}

func NewWalletFromMnemonic(mnemonic string, path string) (*Wallet, error) {
	hdnode, err := NewHDNodeFromMnemonic(mnemonic, nil)
	if err != nil {
		return nil, err
	}
	return NewWalletFromHDNode(hdnode, path)
}

//

// Signer(), aka Transactor() ?

// Provider()

// GetAddress()

// Sign(tx)

// SignMessage(string)

// GetBalance()

// GetTransactionCount()

// ..

// func (w *Wallet) URL() accounts.URL {
// 	return accounts.URL{}
// }

// func (w *Wallet) Status() (string, error) {
// 	return "", nil
// }

// func (w *Wallet) Open(passphrase string) error {
// 	return nil
// }

// func (w *Wallet) Close() error {
// 	return nil
// }

// func (w *Wallet) Accounts() []accounts.Account {
// 	return nil
// }

// func (w *Wallet) Contains(account accounts.Account) bool {
// 	return false
// }

// func (w *Wallet) Derive(path accounts.DerivationPath, pin bool) (accounts.Account, error) {
// 	return accounts.Account{}, nil
// }

// func (w *Wallet) SelfDerive(bases []accounts.DerivationPath, chain ethereum.ChainStateReader) {

// }

// func (w *Wallet) SignData(account accounts.Account, mimeType string, data []byte) ([]byte, error) {
// 	return nil, nil
// }

// func (w *Wallet) SignDataWithPassphrase(account accounts.Account, passphrase, mimeType string, data []byte) ([]byte, error) {
// 	return nil, nil
// }

// func (w *Wallet) SignText(account accounts.Account, text []byte) ([]byte, error) {
// 	return nil, nil
// }

// func (w *Wallet) SignTextWithPassphrase(account accounts.Account, passphrase string, hash []byte) ([]byte, error) {
// 	return nil, nil
// }

// func (w *Wallet) SignTx(account accounts.Account, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {

// }

// func (w *Wallet) SignTxWithPassphrase(account accounts.Account, passphrase string, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
// 	return nil, nil
// }

// Package wallet owns the trading account's key and signs transactions. The
// private key never leaves this package.
package wallet

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"

	"github.com/betbot/godex/pkg/secretstore"
)

// DefaultDerivationPath is the standard Ethereum account path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Key is a single-account signer.
type Key struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

// FromHex loads a key from a hex-encoded private key, with or without the
// 0x prefix.
func FromHex(hexkey string) (*Key, error) {
	hexkey = strings.TrimPrefix(strings.TrimSpace(hexkey), "0x")
	priv, err := crypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return &Key{priv: priv, addr: crypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// FromMnemonic derives a key from a BIP-39 mnemonic. An empty path selects
// the default Ethereum derivation path.
func FromMnemonic(mnemonic, path string) (*Key, error) {
	if path == "" {
		path = DefaultDerivationPath
	}
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, errors.Wrap(err, "parse mnemonic")
	}
	dp, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse derivation path")
	}
	account, err := w.Derive(dp, false)
	if err != nil {
		return nil, errors.Wrap(err, "derive account")
	}
	priv, err := w.PrivateKey(account)
	if err != nil {
		return nil, errors.Wrap(err, "export derived key")
	}
	return &Key{priv: priv, addr: crypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// FromSecretStore loads key material from the encrypted store, preferring a
// raw private key over a mnemonic.
func FromSecretStore(store *secretstore.Store) (*Key, error) {
	if hexkey, ok, err := store.GetString(secretstore.KeyPrivateKey); err != nil {
		return nil, err
	} else if ok {
		return FromHex(hexkey)
	}
	if mnemonic, ok, err := store.GetString(secretstore.KeyMnemonic); err != nil {
		return nil, err
	} else if ok {
		return FromMnemonic(mnemonic, "")
	}
	return nil, errors.New("secret store holds no key material")
}

// Address returns the account address.
func (k *Key) Address() common.Address {
	return k.addr
}

// SignTx signs with the EIP-155 replay-protected signer.
func (k *Key) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), k.priv)
}

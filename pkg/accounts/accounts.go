// Package accounts derives development accounts from a BIP-39 mnemonic
package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultCount is the number of accounts derived when none is configured
const DefaultCount = 20

// PathFormat is the BIP-44 path of the i-th Ethereum account
const PathFormat = "m/44'/60'/0'/0/%d"

var (
	// ErrInvalidMnemonic is returned for mnemonics that fail the BIP-39 checksum
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrUnknownNamedAccount is returned when a name has no account index
	ErrUnknownNamedAccount = errors.New("unknown named account")
)

// Account is a derived development account
type Account struct {
	Index   int
	Path    string
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// Derive derives count accounts from mnemonic along m/44'/60'/0'/0/i
func Derive(mnemonic string, count int) ([]Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if count <= 0 {
		return nil, fmt.Errorf("account count must be positive, got %d", count)
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	// m/44'/60'/0'/0
	parent := master
	for _, index := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
	} {
		parent, err = parent.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("derive key: %w", err)
		}
	}

	accounts := make([]Account, count)
	for i := range accounts {
		child, err := parent.Derive(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		priv, err := child.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("get private key %d: %w", i, err)
		}
		key, err := crypto.ToECDSA(priv.Serialize())
		if err != nil {
			return nil, fmt.Errorf("convert private key %d: %w", i, err)
		}
		accounts[i] = Account{
			Index:   i,
			Path:    fmt.Sprintf(PathFormat, i),
			Address: crypto.PubkeyToAddress(key.PublicKey),
			Key:     key,
		}
	}
	return accounts, nil
}

// PrivateKeyHex returns the 0x-prefixed hex encoding of the account key
func (a Account) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(a.Key))
}

// Addresses returns the addresses of accounts in order
func Addresses(accounts []Account) []common.Address {
	addrs := make([]common.Address, len(accounts))
	for i, a := range accounts {
		addrs[i] = a.Address
	}
	return addrs
}

// Named resolves a named account such as "deployer" to its derived account
func Named(accounts []Account, named map[string]int, name string) (Account, error) {
	idx, ok := named[name]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrUnknownNamedAccount, name)
	}
	if idx < 0 || idx >= len(accounts) {
		return Account{}, fmt.Errorf("named account %s: index %d out of range [0, %d)", name, idx, len(accounts))
	}
	return accounts[idx], nil
}

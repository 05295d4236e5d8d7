package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/citadelfi/libcitadel-go/chain"
)

const (
	// BIP44 path constants.
	PurposeBIP44   = 44
	CoinTypeEther  = 60
	DefaultAccount = 0

	// ExternalChain is the receive chain index.
	ExternalChain = 0

	// MaxIndex is the largest non-hardened child index (2^31 - 1).
	MaxIndex = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet derives actor accounts from one BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	external  *bip32.ExtendedKey
	network   *NetworkConfig
}

// Account is one derived actor: m/44'/60'/0'/0/index.
type Account struct {
	Index      uint32         `json:"index"`
	Path       string         `json:"path"`
	Address    chain.Address  `json:"address"`
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"-"`
}

// NewWallet creates a new Wallet from a BIP39 seed.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &Development
	}

	// Only the extended key version bytes depend on the params.
	net := &chaincfg.TestNet
	if network.Name == MainNet.Name {
		net = &chaincfg.MainNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	external, err := deriveExternal(masterKey)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		masterKey: masterKey,
		external:  external,
		network:   network,
	}, nil
}

// FromMnemonic validates mnemonic and builds a wallet from its seed.
func FromMnemonic(mnemonic, passphrase string, network *NetworkConfig) (*Wallet, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, network)
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// deriveExternal derives m/44'/60'/0'/0.
func deriveExternal(master *bip32.ExtendedKey) (*bip32.ExtendedKey, error) {
	purpose, err := master.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	coinType, err := purpose.Child(CoinTypeEther + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	accountKey, err := coinType.Child(DefaultAccount + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}

	chainKey, err := accountKey.Child(ExternalChain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}
	return chainKey, nil
}

// DeriveAccount derives the account at m/44'/60'/0'/0/index.
func (w *Wallet) DeriveAccount(index uint32) (*Account, error) {
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	childKey, err := w.external.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	privKey, err := childKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &Account{
		Index:      index,
		Path:       fmt.Sprintf("m/44'/60'/0'/0/%d", index),
		Address:    PubKeyToAddress(pubKey),
		PrivateKey: privKey,
		PublicKey:  pubKey,
	}, nil
}

// Accounts derives the first n accounts.
func (w *Wallet) Accounts(n int) ([]*Account, error) {
	if n < 0 || n > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, n)
	}
	out := make([]*Account, 0, n)
	for i := 0; i < n; i++ {
		acct, err := w.DeriveAccount(uint32(i))
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

// Addresses derives the first n account addresses.
func (w *Wallet) Addresses(n int) ([]chain.Address, error) {
	accts, err := w.Accounts(n)
	if err != nil {
		return nil, err
	}
	out := make([]chain.Address, len(accts))
	for i, a := range accts {
		out[i] = a.Address
	}
	return out, nil
}

// PubKeyToAddress returns the last 20 bytes of keccak256 over the
// compressed public key.
func PubKeyToAddress(pub *ec.PublicKey) chain.Address {
	h := chain.Keccak256(pub.Compressed())
	return chain.BytesToAddress(h[12:])
}

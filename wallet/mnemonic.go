// Package wallet derives the deployment actors (deployer, operators,
// governance roles) from a BIP39 mnemonic using BIP32.
//
// Key hierarchy: m/44'/60'/0'/0/{index}. Account addresses are the last
// 20 bytes of keccak256 over the compressed public key.
package wallet

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
)

// Mnemonic entropy sizes in bits.
const (
	Mnemonic12Words = 128
	Mnemonic24Words = 256
)

// DevMnemonic is the well-known development mnemonic. Never fund its accounts.
const DevMnemonic = "test test test test test test test test test test test junk"

// GenerateMnemonic returns a fresh mnemonic of Mnemonic12Words or
// Mnemonic24Words entropy.
func GenerateMnemonic(entropyBits int) (string, error) {
	switch entropyBits {
	case Mnemonic12Words, Mnemonic24Words:
	default:
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("wallet: entropy: %w", err)
	}
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: mnemonic: %w", err)
	}
	return m, nil
}

// ValidateMnemonic reports whether mnemonic is a valid BIP39 phrase.
// Surrounding whitespace is ignored.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}

// SeedFromMnemonic derives the 64-byte BIP39 seed. An empty passphrase
// still takes part in the derivation.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive seed: %w", err)
	}
	return seed, nil
}

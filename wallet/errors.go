package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrIndexOutOfRange indicates an account index exceeds the BIP32 non-hardened max.
	ErrIndexOutOfRange = errors.New("wallet: account index exceeds maximum (2^31-1)")

	// ErrDecryptionFailed indicates wrong password or corrupted keystore data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrKeystoreNotFound indicates the keystore file does not exist.
	ErrKeystoreNotFound = errors.New("wallet: keystore not found")

	// ErrKeystoreVersion indicates a keystore written by an unknown format version.
	ErrKeystoreVersion = errors.New("wallet: unsupported keystore version")
)

package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// Keystore layout:
//
//	magic "CTK" | version(1) | salt(16) | nonce(12) | AES-256-GCM(seed || sha256(seed)[:4])
//
// The 4-byte header is authenticated as GCM additional data.
const (
	keystoreVersion = 1
	headerLen       = 4
	saltLen         = 16
	nonceLen        = 12
	checksumLen     = 4

	kdfTime    = 3
	kdfMemory  = 64 * 1024 // KiB
	kdfThreads = 4
	kdfKeyLen  = 32
)

var keystoreMagic = []byte("CTK")

func keystoreHeader() []byte {
	return append(append([]byte{}, keystoreMagic...), keystoreVersion)
}

// newAEAD derives the keystore key from password and salt.
func newAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, kdfTime, kdfMemory, kdfThreads, kdfKeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seedChecksum(seed []byte) []byte {
	sum := sha256.Sum256(seed)
	return sum[:checksumLen]
}

// EncryptSeed seals seed under password in the keystore layout. Each call
// uses a fresh salt and nonce.
func EncryptSeed(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	random := make([]byte, saltLen+nonceLen)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("wallet: read random: %w", err)
	}
	salt, nonce := random[:saltLen], random[saltLen:]

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, fmt.Errorf("wallet: keystore cipher: %w", err)
	}
	header := keystoreHeader()
	plain := append(append(make([]byte, 0, len(seed)+checksumLen), seed...), seedChecksum(seed)...)

	out := make([]byte, 0, headerLen+len(random)+len(plain)+aead.Overhead())
	out = append(out, header...)
	out = append(out, random...)
	return aead.Seal(out, nonce, plain, header), nil
}

// DecryptSeed opens a keystore produced by EncryptSeed. A wrong password or
// tampered data yields ErrDecryptionFailed.
func DecryptSeed(data []byte, password string) ([]byte, error) {
	if len(data) < headerLen+saltLen+nonceLen+checksumLen {
		return nil, ErrDecryptionFailed
	}
	header := data[:headerLen]
	if !bytes.Equal(header[:len(keystoreMagic)], keystoreMagic) {
		return nil, ErrDecryptionFailed
	}
	if header[len(keystoreMagic)] != keystoreVersion {
		return nil, fmt.Errorf("%w: %d", ErrKeystoreVersion, header[len(keystoreMagic)])
	}
	body := data[headerLen:]
	salt, nonce, sealed := body[:saltLen], body[saltLen:saltLen+nonceLen], body[saltLen+nonceLen:]

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plain, err := aead.Open(nil, nonce, sealed, header)
	if err != nil || len(plain) <= checksumLen {
		return nil, ErrDecryptionFailed
	}
	seed, sum := plain[:len(plain)-checksumLen], plain[len(plain)-checksumLen:]
	if subtle.ConstantTimeCompare(sum, seedChecksum(seed)) != 1 {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}

// SaveKeystore encrypts seed with password and writes it to path (0600),
// creating parent directories.
func SaveKeystore(path string, seed []byte, password string) error {
	enc, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create keystore dir: %w", err)
	}
	if err := os.WriteFile(path, enc, 0600); err != nil {
		return fmt.Errorf("wallet: write keystore: %w", err)
	}
	return nil
}

// LoadKeystore reads and decrypts the seed stored at path.
func LoadKeystore(path, password string) ([]byte, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, path)
		}
		return nil, fmt.Errorf("wallet: read keystore: %w", err)
	}
	return DecryptSeed(enc, password)
}

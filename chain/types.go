// Package chain implements the deterministic simulated ledger the Citadel
// contracts run on: addresses, keccak hashing, a manually advanced clock,
// block heights, transaction receipts and event logs.
//
// Time only moves when Sleep is called. Blocks are produced by Mine and by
// every Exec call, all sharing the current timestamp.
package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// AddressLength is the byte length of an account or contract address.
	AddressLength = 20

	// HashLength is the byte length of a keccak256 digest.
	HashLength = 32
)

// Address identifies an account or a deployed contract.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address, used as "unset".
var ZeroAddress Address

// Hash is a keccak256 digest (role ids, transaction hashes).
type Hash [HashLength]byte

// ZeroHash is the all-zero hash. It is also DEFAULT_ADMIN_ROLE.
var ZeroHash Hash

// Keccak256 hashes the concatenation of data with legacy Keccak-256.
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

// RoleID returns keccak256(name), the identifier of a named role.
func RoleID(name string) Hash {
	return Keccak256([]byte(name))
}

// Hex returns the 0x-prefixed lowercase hex form of the hash.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// BytesToAddress returns the address formed by the last 20 bytes of b.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a 0x-prefixed (or bare) 40 character hex address.
// Checksum casing is accepted but not enforced.
func HexToAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*AddressLength {
		return ZeroAddress, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidAddress, 2*AddressLength, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return BytesToAddress(b), nil
}

// MustAddress is HexToAddress for constants; it panics on malformed input.
func MustAddress(s string) Address {
	a, err := HexToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// Hex returns the EIP-55 mixed-case checksum encoding of the address.
func (a Address) Hex() string {
	lower := hex.EncodeToString(a[:])
	digest := Keccak256([]byte(lower))

	out := make([]byte, 2+len(lower))
	copy(out, "0x")
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c -= 'a' - 'A'
			}
		}
		out[2+i] = c
	}
	return string(out)
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler so addresses render as hex
// in YAML and JSON documents.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := HexToAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package sale

import (
	"bytes"

	"github.com/citadelfi/libcitadel-go/chain"
)

// GuestLeaf is the Merkle leaf for addr: keccak256(addr).
func GuestLeaf(addr chain.Address) chain.Hash {
	return chain.Keccak256(addr[:])
}

// hashPair hashes two nodes in sorted order, so proofs carry no
// left/right flags.
func hashPair(a, b chain.Hash) chain.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return chain.Keccak256(a[:], b[:])
}

// BuildGuestlist builds the guestlist tree over addrs and returns the root
// and a proof per address. Duplicate addresses are dropped; odd levels
// duplicate their last node.
func BuildGuestlist(guests []chain.Address) (chain.Hash, map[chain.Address][]chain.Hash, error) {
	seen := make(map[chain.Address]bool, len(guests))
	addrs := make([]chain.Address, 0, len(guests))
	for _, a := range guests {
		if !seen[a] {
			seen[a] = true
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return chain.ZeroHash, nil, ErrEmptyGuestlist
	}

	level := make([]chain.Hash, len(addrs))
	pos := make([]int, len(addrs))
	for i, a := range addrs {
		level[i] = GuestLeaf(a)
		pos[i] = i
	}
	proofs := make(map[chain.Address][]chain.Hash, len(addrs))
	for _, a := range addrs {
		proofs[a] = nil
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		for i, a := range addrs {
			proofs[a] = append(proofs[a], level[pos[i]^1])
			pos[i] /= 2
		}
		next := make([]chain.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		level = next
	}
	return level[0], proofs, nil
}

// VerifyGuest recomputes the root from addr and proof (bottom-up).
func VerifyGuest(root chain.Hash, addr chain.Address, proof []chain.Hash) bool {
	h := GuestLeaf(addr)
	for _, node := range proof {
		h = hashPair(h, node)
	}
	return h == root
}

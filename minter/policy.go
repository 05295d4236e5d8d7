package minter

import (
	"fmt"
	"math/big"
)

// MaxBps is the basis-point denominator of a Policy.
const MaxBps = 10_000

// Policy splits a mint between funding, staking and locking.
type Policy struct {
	FundingBps uint64
	StakingBps uint64
	LockingBps uint64
}

// Validate checks that the three buckets sum to MaxBps.
func (p Policy) Validate() error {
	for _, b := range []uint64{p.FundingBps, p.StakingBps, p.LockingBps} {
		if b > MaxBps {
			return fmt.Errorf("%w: bucket %d", ErrInvalidPolicy, b)
		}
	}
	if sum := p.FundingBps + p.StakingBps + p.LockingBps; sum != MaxBps {
		return fmt.Errorf("%w: got %d", ErrInvalidPolicy, sum)
	}
	return nil
}

// Distribution is the per-destination outcome of a split.
type Distribution struct {
	Funding *big.Int
	Staking *big.Int
	Locking *big.Int
}

// Total returns the sum of the three buckets.
func (d Distribution) Total() *big.Int {
	t := new(big.Int).Add(d.Funding, d.Staking)
	return t.Add(t, d.Locking)
}

// Split divides total according to p. The last non-zero bucket gets the
// remainder to avoid integer division precision loss.
func (p Policy) Split(total *big.Int) (Distribution, error) {
	if err := p.Validate(); err != nil {
		return Distribution{}, err
	}
	if total == nil || total.Sign() <= 0 {
		return Distribution{}, ErrNothingToMint
	}

	bps := []uint64{p.FundingBps, p.StakingBps, p.LockingBps}
	last := 0
	for i, b := range bps {
		if b > 0 {
			last = i
		}
	}

	out := make([]*big.Int, len(bps))
	distributed := new(big.Int)
	for i, b := range bps {
		switch {
		case i == last:
			out[i] = new(big.Int).Sub(total, distributed)
		case i > last || b == 0:
			out[i] = new(big.Int)
		default:
			amount := new(big.Int).Mul(total, new(big.Int).SetUint64(b))
			amount.Quo(amount, big.NewInt(MaxBps))
			out[i] = amount
			distributed.Add(distributed, amount)
		}
	}
	return Distribution{Funding: out[0], Staking: out[1], Locking: out[2]}, nil
}

package flow

import (
	"context"
	"math/big"

	"github.com/citadelfi/libcitadel-go/deploy"
)

// MintAndDistribute has the policy operator mint `amount` to each of the
// funding, staking and locking buckets of a fresh vault.
func MintAndDistribute(ctx context.Context, sys *deploy.System, opts ...Option) (*Report, error) {
	o := buildOptions(opts)
	r := newRunner(ctx, Minting, sys, o)
	a := sys.Actors
	ctdl, v, l, m := sys.Citadel, sys.Vault, sys.Locker, sys.Minter
	amount := o.amount

	if err := r.ensureDistributor(m.Address()); err != nil {
		return nil, err
	}

	underlying := ctdl.BalanceOf(v.Address())
	policyShares := v.BalanceOf(a.PolicyDestination)
	lockerShares := v.BalanceOf(l.Address())
	if err := r.tx(a.PolicyOperator, m.Address(), "mintAndDistribute", func() error {
		return m.MintAndDistribute(a.PolicyOperator, amount, amount, amount)
	}); err != nil {
		return nil, err
	}

	underlying.Sub(ctdl.BalanceOf(v.Address()), underlying)
	policyShares.Sub(v.BalanceOf(a.PolicyDestination), policyShares)
	lockerShares.Sub(v.BalanceOf(l.Address()), lockerShares)
	r.observe("vault_underlying", underlying)
	r.observe("policy_shares", policyShares)
	r.observe("locker_shares", lockerShares)

	want := new(big.Int).Mul(amount, big.NewInt(3))
	if err := r.expect(underlying.Cmp(want) == 0, "vault gained %s, want %s", underlying, want); err != nil {
		return nil, err
	}
	if err := r.expect(policyShares.Cmp(amount) == 0, "policy destination got %s shares, want %s", policyShares, amount); err != nil {
		return nil, err
	}
	// Staking doubles the price per share before the locking deposit.
	half := new(big.Int).Quo(amount, big.NewInt(2))
	if err := r.expect(lockerShares.Cmp(half) == 0, "locker got %s shares, want %s", lockerShares, half); err != nil {
		return nil, err
	}
	return r.done(), nil
}

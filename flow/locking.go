package flow

import (
	"context"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
	"github.com/citadelfi/libcitadel-go/locker"
)

// LockAndClaim stakes the user's Citadel, locks the shares, streams an
// xCitadel reward to the locker, claims it after a day and withdraws the
// lock once it has expired.
func LockAndClaim(ctx context.Context, sys *deploy.System, opts ...Option) (*Report, error) {
	o := buildOptions(opts)
	r := newRunner(ctx, Locking, sys, o)
	a := sys.Actors
	ctdl, v, l := sys.Citadel, sys.Vault, sys.Locker
	amount := o.amount

	if err := r.ensureMinter(); err != nil {
		return nil, err
	}
	if err := r.tx(a.Deployer, ctdl.Address(), "mint", func() error {
		return ctdl.Mint(a.Deployer, a.User, amount)
	}); err != nil {
		return nil, err
	}
	if err := r.tx(a.User, ctdl.Address(), "approve", func() error {
		return ctdl.Approve(a.User, v.Address(), chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	sharesBefore := v.BalanceOf(a.User)
	if err := r.tx(a.User, v.Address(), "deposit", func() error {
		return v.Deposit(a.User, amount)
	}); err != nil {
		return nil, err
	}
	shares := new(big.Int).Sub(v.BalanceOf(a.User), sharesBefore)
	if err := r.expect(shares.Cmp(amount) == 0, "deposit of %s minted %s shares at ppfs 1", amount, shares); err != nil {
		return nil, err
	}

	if err := r.tx(a.User, v.Address(), "approve", func() error {
		return v.Approve(a.User, l.Address(), chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	lockedBefore := l.LockedBalanceOf(a.User)
	if err := r.tx(a.User, l.Address(), "lock", func() error {
		return l.Lock(a.User, a.User, shares, 0)
	}); err != nil {
		return nil, err
	}
	locked := new(big.Int).Sub(l.LockedBalanceOf(a.User), lockedBefore)
	r.observe("locked", locked)
	if err := r.expect(locked.Cmp(amount) == 0, "locked %s, want %s", locked, amount); err != nil {
		return nil, err
	}

	// Fund one reward period of `amount` xCitadel from the deployer.
	if err := r.ensureDistributor(a.Deployer); err != nil {
		return nil, err
	}
	funding := new(big.Int).Mul(amount, big.NewInt(10))
	if err := r.tx(a.Deployer, ctdl.Address(), "mint", func() error {
		return ctdl.Mint(a.Deployer, a.Deployer, funding)
	}); err != nil {
		return nil, err
	}
	if err := r.tx(a.Deployer, ctdl.Address(), "approve", func() error {
		return ctdl.Approve(a.Deployer, v.Address(), chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	if err := r.tx(a.Deployer, v.Address(), "deposit", func() error {
		return v.Deposit(a.Deployer, funding)
	}); err != nil {
		return nil, err
	}
	if err := r.tx(a.Deployer, v.Address(), "approve", func() error {
		return v.Approve(a.Deployer, l.Address(), chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	if err := r.tx(a.Deployer, l.Address(), "notifyRewardAmount", func() error {
		return l.NotifyRewardAmount(a.Deployer, v.Address(), amount)
	}); err != nil {
		return nil, err
	}
	rate := l.GetRewardForDuration(v.Address())
	r.observe("reward_for_duration", rate)
	if err := r.expect(rate.Sign() > 0, "reward for duration is %s", rate); err != nil {
		return nil, err
	}

	r.sleep(chain.Day)
	claimable := vaultReward(l.ClaimableRewards(a.User), v.Address())
	r.observe("claimable", claimable)
	if err := r.expect(claimable.Sign() > 0, "nothing claimable after a day"); err != nil {
		return nil, err
	}
	before := v.BalanceOf(a.User)
	if err := r.tx(a.User, l.Address(), "getReward", func() error {
		return l.GetReward(a.User, a.User, false)
	}); err != nil {
		return nil, err
	}
	paid := new(big.Int).Sub(v.BalanceOf(a.User), before)
	r.observe("reward_paid", paid)
	if err := r.expect(paid.Cmp(claimable) == 0, "paid %s, claimable was %s", paid, claimable); err != nil {
		return nil, err
	}

	r.sleep(locker.LockDuration)
	before = v.BalanceOf(a.User)
	if err := r.tx(a.User, l.Address(), "processExpiredLocks", func() error {
		return l.ProcessExpiredLocks(a.User, false)
	}); err != nil {
		return nil, err
	}
	returned := new(big.Int).Sub(v.BalanceOf(a.User), before)
	r.observe("unlocked", returned)
	if err := r.expect(returned.Sign() > 0, "expired locks returned nothing"); err != nil {
		return nil, err
	}
	return r.done(), nil
}

func vaultReward(earned []locker.EarnedData, vault chain.Address) *big.Int {
	for _, e := range earned {
		if e.Token == vault {
			return chain.Clone(e.Amount)
		}
	}
	return new(big.Int)
}

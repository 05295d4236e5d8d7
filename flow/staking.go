package flow

import (
	"context"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

// StakeVestingWait is how long the staking flow waits before its first
// claim, roughly half the default vesting duration.
const StakeVestingWait = 10 * chain.Day

// StakeWithdraw mints Citadel to the user, stakes it into the vault,
// withdraws everything into vesting and claims it back in two steps.
func StakeWithdraw(ctx context.Context, sys *deploy.System, opts ...Option) (*Report, error) {
	o := buildOptions(opts)
	r := newRunner(ctx, Staking, sys, o)
	a := sys.Actors
	ctdl, v, h := sys.Citadel, sys.Vault, sys.Vesting
	amount := o.amount

	if err := r.ensureMinter(); err != nil {
		return nil, err
	}

	base := ctdl.BalanceOf(a.User)
	if err := r.tx(a.Deployer, ctdl.Address(), "mint", func() error {
		return ctdl.Mint(a.Deployer, a.User, amount)
	}); err != nil {
		return nil, err
	}
	got := new(big.Int).Sub(ctdl.BalanceOf(a.User), base)
	if err := r.expect(got.Cmp(amount) == 0, "minted %s, want %s", got, amount); err != nil {
		return nil, err
	}

	if err := r.tx(a.User, ctdl.Address(), "approve", func() error {
		return ctdl.Approve(a.User, v.Address(), chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	sharesBefore := v.BalanceOf(a.User)
	vaultBefore := ctdl.BalanceOf(v.Address())
	if err := r.tx(a.User, v.Address(), "deposit", func() error {
		return v.Deposit(a.User, amount)
	}); err != nil {
		return nil, err
	}
	shares := new(big.Int).Sub(v.BalanceOf(a.User), sharesBefore)
	r.observe("shares", shares)
	if err := r.expect(shares.Cmp(amount) == 0, "deposit of %s minted %s shares at ppfs 1", amount, shares); err != nil {
		return nil, err
	}
	held := new(big.Int).Sub(ctdl.BalanceOf(v.Address()), vaultBefore)
	if err := r.expect(held.Cmp(amount) == 0, "vault holds %s more, want %s", held, amount); err != nil {
		return nil, err
	}

	vestingBefore := ctdl.BalanceOf(h.Address())
	if err := r.tx(a.User, v.Address(), "withdrawAll", func() error {
		return v.WithdrawAll(a.User)
	}); err != nil {
		return nil, err
	}
	vested := new(big.Int).Sub(ctdl.BalanceOf(h.Address()), vestingBefore)
	r.observe("vested", vested)
	if err := r.expect(vested.Cmp(amount) == 0, "vesting received %s, want %s", vested, amount); err != nil {
		return nil, err
	}
	if c := h.ClaimableBalance(a.User); c.Sign() != 0 {
		return nil, r.expect(false, "claimable %s right after withdraw", c)
	}

	r.sleep(StakeVestingWait)
	s := h.Vesting(a.User)
	linear := new(big.Int).Mul(amount, new(big.Int).SetUint64(r.c.Now()-s.UnlockBegin))
	linear.Quo(linear, new(big.Int).SetUint64(h.VestingDuration()))
	r.observe("linear_share", linear)

	if err := r.tx(a.User, h.Address(), "claim", func() error {
		return h.Claim(a.User, a.User, chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	claimed := new(big.Int).Sub(ctdl.BalanceOf(a.User), base)
	r.observe("first_claim", claimed)
	if err := r.expect(claimed.Cmp(linear) >= 0, "claimed %s, want at least %s", claimed, linear); err != nil {
		return nil, err
	}

	r.sleep(StakeVestingWait * 3)
	if err := r.tx(a.User, h.Address(), "claim", func() error {
		return h.Claim(a.User, a.User, chain.MaxUint256)
	}); err != nil {
		return nil, err
	}
	claimed = new(big.Int).Sub(ctdl.BalanceOf(a.User), base)
	r.observe("total_claimed", claimed)
	if err := r.expect(claimed.Cmp(amount) == 0, "claimed %s in total, want %s", claimed, amount); err != nil {
		return nil, err
	}
	return r.done(), nil
}

package locker

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

func makeAddr(seed byte) chain.Address {
	var a chain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	owner       = makeAddr(0x01)
	distributor = makeAddr(0x02)
	alice       = makeAddr(0x0A)
	bob         = makeAddr(0x0B)
	receiver    = makeAddr(0x0C)
)

const genesis = 1_700_000_000

type fixture struct {
	chain   *chain.Chain
	staking *token.Mock
	reward  *token.Mock
	locker  *Locker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := chain.New(chain.WithGenesisTime(genesis))
	staking := token.NewMock(c, owner, "Staked Citadel", "xCTDL", 18)
	reward := token.NewMock(c, owner, "Reward", "RWD", 18)
	l := New(c, owner)
	require.NoError(t, l.Initialize(staking, "Vote Locked Citadel", "vlCTDL"))
	return &fixture{chain: c, staking: staking, reward: reward, locker: l}
}

func (f *fixture) lock(t *testing.T, who chain.Address, amount *big.Int) {
	t.Helper()
	require.NoError(t, f.staking.MintTo(who, amount))
	require.NoError(t, f.staking.Approve(who, f.locker.Address(), chain.MaxUint256))
	require.NoError(t, f.locker.Lock(who, who, amount, 0))
}

func (f *fixture) notify(t *testing.T, amount *big.Int) {
	t.Helper()
	require.NoError(t, f.reward.MintTo(distributor, amount))
	require.NoError(t, f.reward.Approve(distributor, f.locker.Address(), amount))
	require.NoError(t, f.locker.NotifyRewardAmount(distributor, f.reward.Address(), amount))
}

func eq(t *testing.T, want, got *big.Int) {
	t.Helper()
	assert.Equal(t, 0, want.Cmp(got), "want %s got %s", want, got)
}

func claimable(l *Locker, account, tok chain.Address) *big.Int {
	for _, e := range l.ClaimableRewards(account) {
		if e.Token == tok {
			return e.Amount
		}
	}
	return new(big.Int)
}

func TestLock_Balances(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))

	eq(t, chain.Ether(10), f.locker.LockedBalanceOf(alice))
	eq(t, chain.Ether(10), f.locker.LockedSupply())
	eq(t, chain.Ether(10), f.staking.BalanceOf(f.locker.Address()))

	// Locks made in the current epoch do not count yet.
	assert.Equal(t, 0, f.locker.BalanceOf(alice).Sign())
	assert.Equal(t, 0, f.locker.TotalSupply().Sign())

	f.chain.Sleep(RewardsDuration)
	eq(t, chain.Ether(10), f.locker.BalanceOf(alice))
	eq(t, chain.Ether(10), f.locker.TotalSupply())

	total, unlockable, locked, data := f.locker.LockedBalances(alice)
	eq(t, chain.Ether(10), total)
	assert.Equal(t, 0, unlockable.Sign())
	eq(t, chain.Ether(10), locked)
	require.Len(t, data, 1)
	assert.Equal(t, epochStart(genesis)+LockDuration, data[0].UnlockTime)
}

func TestLock_Errors(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.locker.Lock(alice, alice, big.NewInt(0), 0), ErrZeroAmount)
	assert.ErrorIs(t, f.locker.Lock(alice, alice, chain.Ether(1), 1), ErrSpendRatio)
	assert.ErrorIs(t, f.locker.Lock(alice, alice, chain.Ether(1), 0), token.ErrInsufficientAllowance)
	assert.Equal(t, 0, f.locker.LockedSupply().Sign())
}

func TestLock_SameEpochMerges(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(1))
	f.lock(t, alice, chain.Ether(2))
	_, _, _, data := f.locker.LockedBalances(alice)
	require.Len(t, data, 1)
	eq(t, chain.Ether(3), data[0].Amount)

	f.chain.Sleep(RewardsDuration)
	f.lock(t, alice, chain.Ether(4))
	_, _, _, data = f.locker.LockedBalances(alice)
	require.Len(t, data, 2)
	assert.Equal(t, data[0].UnlockTime+RewardsDuration, data[1].UnlockTime)
}

func TestProcessExpiredLocks(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))

	assert.ErrorIs(t, f.locker.ProcessExpiredLocks(alice, false), ErrNoExpiredLocks)

	f.chain.Sleep(LockDuration)
	_, unlockable, _, _ := f.locker.LockedBalances(alice)
	eq(t, chain.Ether(10), unlockable)
	assert.Equal(t, 0, f.locker.BalanceOf(alice).Sign())

	require.NoError(t, f.locker.ProcessExpiredLocks(alice, false))
	eq(t, chain.Ether(10), f.staking.BalanceOf(alice))
	assert.Equal(t, 0, f.locker.LockedBalanceOf(alice).Sign())
	assert.Equal(t, 0, f.locker.LockedSupply().Sign())

	assert.ErrorIs(t, f.locker.ProcessExpiredLocks(alice, false), ErrNoExpiredLocks)
}

func TestProcessExpiredLocks_Relock(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))
	f.chain.Sleep(LockDuration + chain.Day)

	require.NoError(t, f.locker.ProcessExpiredLocks(alice, true))
	assert.Equal(t, 0, f.staking.BalanceOf(alice).Sign())
	eq(t, chain.Ether(10), f.locker.LockedBalanceOf(alice))

	_, unlockable, locked, data := f.locker.LockedBalances(alice)
	assert.Equal(t, 0, unlockable.Sign())
	eq(t, chain.Ether(10), locked)
	require.Len(t, data, 1)
	assert.Equal(t, epochStart(f.chain.Now())+LockDuration, data[0].UnlockTime)
}

func TestWithdrawExpiredLocksTo(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(5))
	f.chain.Sleep(LockDuration)

	require.NoError(t, f.locker.WithdrawExpiredLocksTo(alice, bob))
	eq(t, chain.Ether(5), f.staking.BalanceOf(bob))
}

func TestKickExpiredLocks(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))

	f.chain.Sleep(LockDuration)
	assert.ErrorIs(t, f.locker.KickExpiredLocks(bob, alice), ErrNoExpiredLocks, "kick delay not yet over")

	f.chain.Sleep(RewardsDuration * defaultKickRewardEpochDelay)
	require.NoError(t, f.locker.KickExpiredLocks(bob, alice))

	// One epoch over the delay: 1% of the lock.
	eq(t, new(big.Int).Div(chain.Ether(10), big.NewInt(100)), f.staking.BalanceOf(bob))
	eq(t, new(big.Int).Sub(chain.Ether(10), new(big.Int).Div(chain.Ether(10), big.NewInt(100))), f.staking.BalanceOf(alice))
	assert.Equal(t, 0, f.locker.LockedBalanceOf(alice).Sign())
}

func (f *fixture) snapshot(who chain.Address) map[string]string {
	total, unlockable, _, data := f.locker.LockedBalances(who)
	return map[string]string{
		"locked":          total.String(),
		"unlockable":      unlockable.String(),
		"lock entries":    fmt.Sprint(len(data)),
		"locked supply":   f.locker.LockedSupply().String(),
		"locker staking":  f.staking.BalanceOf(f.locker.Address()).String(),
		"account staking": f.staking.BalanceOf(who).String(),
		"epochs":          fmt.Sprint(f.locker.EpochCount()),
	}
}

func TestLockAndProcess_RevertLeavesState(t *testing.T) {
	expired := func(t *testing.T, f *fixture) {
		f.lock(t, alice, chain.Ether(10))
		f.chain.Sleep(LockDuration + RewardsDuration*defaultKickRewardEpochDelay)
	}

	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture)
		call    func(f *fixture) error
		wantErr error
	}{
		{
			name: "lock without allowance",
			prepare: func(t *testing.T, f *fixture) {
				require.NoError(t, f.staking.MintTo(alice, chain.Ether(1)))
			},
			call:    func(f *fixture) error { return f.locker.Lock(alice, alice, chain.Ether(1), 0) },
			wantErr: token.ErrInsufficientAllowance,
		},
		{
			name: "lock after shutdown",
			prepare: func(t *testing.T, f *fixture) {
				f.lock(t, alice, chain.Ether(1))
				require.NoError(t, f.staking.MintTo(alice, chain.Ether(1)))
				require.NoError(t, f.locker.Shutdown(owner))
			},
			call:    func(f *fixture) error { return f.locker.Lock(alice, alice, chain.Ether(1), 0) },
			wantErr: ErrShutdown,
		},
		{
			name:    "process before expiry",
			prepare: func(t *testing.T, f *fixture) { f.lock(t, alice, chain.Ether(10)) },
			call:    func(f *fixture) error { return f.locker.ProcessExpiredLocks(alice, false) },
			wantErr: ErrNoExpiredLocks,
		},
		{
			name:    "process without locks",
			prepare: func(t *testing.T, f *fixture) {},
			call:    func(f *fixture) error { return f.locker.ProcessExpiredLocks(alice, false) },
			wantErr: ErrNoExpiredLocks,
		},
		{
			name: "relock after shutdown",
			prepare: func(t *testing.T, f *fixture) {
				expired(t, f)
				require.NoError(t, f.locker.Shutdown(owner))
			},
			call:    func(f *fixture) error { return f.locker.ProcessExpiredLocks(alice, true) },
			wantErr: ErrShutdown,
		},
		{
			// The kick reward would go to the zero address.
			name:    "kick from zero address",
			prepare: expired,
			call:    func(f *fixture) error { return f.locker.KickExpiredLocks(chain.ZeroAddress, alice) },
			wantErr: ErrZeroAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.prepare(t, f)
			before := f.snapshot(alice)

			rcpt, err := f.chain.Exec(alice, f.locker.Address(), tt.name, func() error { return tt.call(f) })
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, rcpt.Succeeded())
			assert.Equal(t, before, f.snapshot(alice))
		})
	}
}

func TestShutdown_ReleasesLocks(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))

	assert.ErrorIs(t, f.locker.Shutdown(alice), ErrNotOwner)
	require.NoError(t, f.locker.Shutdown(owner))
	assert.True(t, f.locker.IsShutdown())

	assert.ErrorIs(t, f.locker.ProcessExpiredLocks(alice, true), ErrShutdown)
	require.NoError(t, f.locker.ProcessExpiredLocks(alice, false))
	eq(t, chain.Ether(10), f.staking.BalanceOf(alice))

	require.NoError(t, f.staking.MintTo(alice, chain.Ether(1)))
	assert.ErrorIs(t, f.locker.Lock(alice, alice, chain.Ether(1), 0), ErrShutdown)
}

func TestRewards_StreamAndClaim(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(1))
	require.NoError(t, f.locker.AddReward(owner, f.reward, distributor))

	f.notify(t, chain.Ether(7))
	assert.Positive(t, f.locker.GetRewardForDuration(f.reward.Address()).Sign())

	f.chain.Sleep(chain.Day)
	got := claimable(f.locker, alice, f.reward.Address())
	assert.Positive(t, got.Sign())
	assert.InDelta(t, 1e18, float64(got.Int64()), 1e6)

	require.NoError(t, f.locker.GetReward(alice, alice, false))
	eq(t, got, f.reward.BalanceOf(alice))
	assert.Equal(t, 0, claimable(f.locker, alice, f.reward.Address()).Sign())

	// Past the period end nothing more accrues, and the total paid never
	// exceeds what was notified.
	f.chain.Sleep(2 * RewardsDuration)
	require.NoError(t, f.locker.GetReward(alice, alice, false))
	assert.LessOrEqual(t, f.reward.BalanceOf(alice).Cmp(chain.Ether(7)), 0)
	assert.Equal(t, f.locker.LastTimeRewardApplicable(f.reward.Address()), genesis+RewardsDuration)
}

func TestRewards_ProRata(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))
	f.lock(t, bob, chain.Ether(30))
	require.NoError(t, f.locker.AddReward(owner, f.reward, distributor))
	f.notify(t, chain.Ether(40))

	f.chain.Sleep(RewardsDuration)
	a := claimable(f.locker, alice, f.reward.Address())
	b := claimable(f.locker, bob, f.reward.Address())
	assert.InDelta(t, 10.0, toFloat(a), 1e-6)
	assert.InDelta(t, 30.0, toFloat(b), 1e-6)
	assert.LessOrEqual(t, new(big.Int).Add(a, b).Cmp(chain.Ether(40)), 0)
}

func TestRewards_LeftoverRollsIntoNewPeriod(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(1))
	require.NoError(t, f.locker.AddReward(owner, f.reward, distributor))
	f.notify(t, chain.Ether(7))

	f.chain.Sleep(RewardsDuration / 2)
	f.notify(t, chain.Ether(7))
	// Half of the first batch remains: (3.5 + 7) over a full week.
	assert.InDelta(t, 10.5, toFloat(f.locker.GetRewardForDuration(f.reward.Address())), 1e-6)
}

func toFloat(v *big.Int) float64 {
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(chain.WeiPerEther)).Float64()
	return out
}

func TestRewards_Permissions(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.locker.AddReward(alice, f.reward, distributor), ErrNotOwner)
	assert.ErrorIs(t, f.locker.NotifyRewardAmount(distributor, f.reward.Address(), chain.Ether(1)), ErrUnknownReward)

	require.NoError(t, f.locker.AddReward(owner, f.reward, distributor))
	assert.ErrorIs(t, f.locker.AddReward(owner, f.reward, distributor), ErrRewardExists)
	assert.ErrorIs(t, f.locker.NotifyRewardAmount(alice, f.reward.Address(), chain.Ether(1)), ErrNotDistributor)
	assert.ErrorIs(t, f.locker.NotifyRewardAmount(distributor, f.reward.Address(), chain.Ether(1)), token.ErrInsufficientAllowance)

	require.NoError(t, f.locker.ApproveRewardDistributor(owner, f.reward.Address(), alice, true))
	assert.True(t, f.locker.IsRewardDistributor(f.reward.Address(), alice))
	require.NoError(t, f.locker.ApproveRewardDistributor(owner, f.reward.Address(), distributor, false))
	assert.ErrorIs(t, f.locker.NotifyRewardAmount(distributor, f.reward.Address(), chain.Ether(1)), ErrNotDistributor)

	assert.Equal(t, []chain.Address{f.reward.Address()}, f.locker.RewardTokens())
}

func TestStakingTokenAsReward(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(1))
	require.NoError(t, f.locker.AddReward(owner, f.staking, distributor))

	require.NoError(t, f.staking.MintTo(distributor, chain.Ether(1)))
	require.NoError(t, f.staking.Approve(distributor, f.locker.Address(), chain.MaxUint256))
	require.NoError(t, f.locker.NotifyRewardAmount(distributor, f.staking.Address(), chain.Ether(1)))

	f.chain.Sleep(chain.Day)
	got := claimable(f.locker, alice, f.staking.Address())
	require.NoError(t, f.locker.GetReward(alice, alice, false))
	eq(t, got, f.staking.BalanceOf(alice))

	f.chain.Sleep(LockDuration)
	require.NoError(t, f.locker.ProcessExpiredLocks(alice, false))
	assert.Positive(t, new(big.Int).Sub(f.staking.BalanceOf(alice), got).Sign())
}

func TestBoost(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.locker.SetBoost(owner, maxBoostPaymentCap, 10_000, receiver), ErrInvalidParam)
	assert.ErrorIs(t, f.locker.SetBoost(owner, 1000, 10_000, chain.ZeroAddress), ErrZeroAddress)
	require.NoError(t, f.locker.SetBoost(owner, 1000, 10_000, receiver))

	// Boost parameters apply from the next epoch.
	require.NoError(t, f.staking.MintTo(alice, chain.Ether(20)))
	require.NoError(t, f.staking.Approve(alice, f.locker.Address(), chain.MaxUint256))
	assert.ErrorIs(t, f.locker.Lock(alice, alice, chain.Ether(10), 1000), ErrSpendRatio)

	f.chain.Sleep(RewardsDuration)
	f.locker.CheckpointEpoch()
	assert.Equal(t, uint64(1000), f.locker.MaximumBoostPayment())

	require.NoError(t, f.locker.Lock(alice, alice, chain.Ether(10), 1000))
	eq(t, chain.Ether(1), f.staking.BalanceOf(receiver))
	eq(t, chain.Ether(9), f.locker.LockedBalanceOf(alice))
	eq(t, chain.Ether(18), f.locker.BoostedSupply())
}

func TestEpochs(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, chain.Ether(10))
	assert.Equal(t, 1, f.locker.EpochCount())

	f.chain.Sleep(3 * RewardsDuration)
	f.locker.CheckpointEpoch()
	assert.Equal(t, 4, f.locker.EpochCount())
	assert.Equal(t, 3, f.locker.FindEpochID(f.chain.Now()))
	assert.Equal(t, 0, f.locker.FindEpochID(genesis))
	assert.Equal(t, epochStart(genesis)+RewardsDuration, f.locker.Epoch(1).Date)

	assert.Equal(t, 0, f.locker.BalanceAtEpochOf(0, alice).Sign())
	eq(t, chain.Ether(10), f.locker.BalanceAtEpochOf(1, alice))
	assert.Equal(t, 0, f.locker.TotalSupplyAtEpoch(0).Sign())
	eq(t, chain.Ether(10), f.locker.TotalSupplyAtEpoch(3))
}

func TestOwnerOps(t *testing.T) {
	f := newFixture(t)
	stray := token.NewMock(f.chain, owner, "Stray", "STR", 18)
	require.NoError(t, stray.MintTo(f.locker.Address(), chain.Ether(1)))

	assert.ErrorIs(t, f.locker.RecoverERC20(owner, f.staking, chain.Ether(1)), ErrProtectedToken)
	require.NoError(t, f.locker.RecoverERC20(owner, stray, chain.Ether(1)))
	eq(t, chain.Ether(1), stray.BalanceOf(owner))

	assert.ErrorIs(t, f.locker.SetKickIncentive(owner, 501, 4), ErrInvalidParam)
	assert.ErrorIs(t, f.locker.SetKickIncentive(owner, 100, 1), ErrInvalidParam)
	require.NoError(t, f.locker.SetKickIncentive(owner, 200, 2))
	assert.Equal(t, uint64(200), f.locker.KickRewardPerEpoch())

	require.NoError(t, f.locker.TransferOwnership(owner, alice))
	assert.ErrorIs(t, f.locker.Shutdown(owner), ErrNotOwner)
}

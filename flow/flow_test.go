package flow

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

func makeAddr(seed byte) chain.Address {
	var a chain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func eq(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, 0, want.Cmp(got), "want %s got %s", want, got)
}

func testActors() deploy.Actors {
	a, _ := deploy.TestActors([]chain.Address{makeAddr(0x01), makeAddr(0x02), makeAddr(0x03), makeAddr(0x04)})
	return a
}

func systemFactory(actors deploy.Actors, params func() deploy.Params) NewSystemFunc {
	return func(ctx context.Context) (*deploy.System, error) {
		c := chain.New(chain.WithGenesisTime(1_700_000_000))
		return deploy.Deploy(ctx, c, actors, params())
	}
}

func newSystem(t *testing.T, params func() deploy.Params) *deploy.System {
	t.Helper()
	sys, err := systemFactory(testActors(), params)(context.Background())
	require.NoError(t, err)
	return sys
}

func TestNamesAndLookup(t *testing.T) {
	assert.Equal(t, []string{Locking, Minting, Staking}, Names())

	for _, name := range Names() {
		f, err := Lookup(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}
	_, err := Lookup("bridging")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestStakeWithdraw(t *testing.T) {
	sys := newSystem(t, deploy.FixtureParams)
	a := chain.Ether(1)
	require.False(t, sys.Registry.HasRole(access.CitadelMinterRole, sys.Actors.Deployer))

	rep, err := StakeWithdraw(context.Background(), sys)
	require.NoError(t, err)

	assert.Equal(t, Staking, rep.Flow)
	eq(t, a, rep.Value("shares"))
	eq(t, a, rep.Value("vested"))
	eq(t, a, rep.Value("total_claimed"))
	assert.GreaterOrEqual(t, rep.Value("first_claim").Cmp(rep.Value("linear_share")), 0)
	assert.Less(t, rep.Value("first_claim").Cmp(a), 0, "first claim is partial")
	assert.Equal(t, rep.StartTime+StakeVestingWait*4, rep.EndTime)
	assert.Greater(t, rep.EndBlock, rep.StartBlock)

	eq(t, a, sys.Citadel.BalanceOf(sys.Actors.User))
	assert.True(t, sys.Registry.HasRole(access.CitadelMinterRole, sys.Actors.Deployer))
	for _, r := range sys.Chain.Receipts() {
		assert.True(t, r.Succeeded(), r.Method)
	}
}

func TestLockAndClaim(t *testing.T) {
	for _, tt := range []struct {
		name   string
		params func() deploy.Params
	}{
		{"fixture", deploy.FixtureParams},
		{"default deployment", deploy.DefaultParams},
	} {
		t.Run(tt.name, func(t *testing.T) {
			sys := newSystem(t, tt.params)
			rep, err := LockAndClaim(context.Background(), sys)
			require.NoError(t, err)

			eq(t, chain.Ether(1), rep.Value("locked"))
			assert.Positive(t, rep.Value("reward_for_duration").Sign())
			eq(t, rep.Value("claimable"), rep.Value("reward_paid"))
			eq(t, chain.Ether(1), rep.Value("unlocked"))
			assert.Zero(t, sys.Locker.LockedBalanceOf(sys.Actors.User).Sign())
			assert.True(t, sys.Locker.IsRewardDistributor(sys.Vault.Address(), sys.Actors.Deployer))
		})
	}
}

func TestMintAndDistribute(t *testing.T) {
	sys := newSystem(t, deploy.FixtureParams)
	a := chain.Ether(1)

	rep, err := MintAndDistribute(context.Background(), sys)
	require.NoError(t, err)

	eq(t, chain.Ether(3), rep.Value("vault_underlying"))
	eq(t, a, rep.Value("policy_shares"))
	eq(t, new(big.Int).Quo(a, big.NewInt(2)), rep.Value("locker_shares"))
	eq(t, chain.Ether(3), sys.Citadel.TotalSupply())
}

func TestMintAndDistribute_CustomAmount(t *testing.T) {
	sys := newSystem(t, deploy.DefaultParams)
	a := chain.Ether(7)

	rep, err := MintAndDistribute(context.Background(), sys, WithAmount(a))
	require.NoError(t, err)
	eq(t, chain.Ether(21), rep.Value("vault_underlying"))
	eq(t, a, rep.Value("policy_shares"))
}

func TestMintAndDistribute_OracleFailsOnUsedVault(t *testing.T) {
	sys := newSystem(t, deploy.FixtureParams)
	_, err := StakeWithdraw(context.Background(), sys)
	require.NoError(t, err)

	// A leftover deposit keeps the share price from doubling.
	u := sys.Actors.User
	require.NoError(t, sys.Citadel.Mint(sys.Actors.Deployer, u, chain.Ether(1)))
	require.NoError(t, sys.Vault.Deposit(u, chain.Ether(1)))

	_, err = MintAndDistribute(context.Background(), sys)
	assert.ErrorIs(t, err, ErrOracle)
}

func TestFlow_StepFailure(t *testing.T) {
	sys := newSystem(t, deploy.FixtureParams)
	require.NoError(t, sys.Registry.RevokeRole(sys.Actors.Governance, access.PolicyOperationsRole, sys.Actors.PolicyOperator))

	_, err := MintAndDistribute(context.Background(), sys)
	assert.ErrorIs(t, err, ErrStep)

	last := sys.Chain.Receipts()[len(sys.Chain.Receipts())-1]
	assert.Equal(t, "mintAndDistribute", last.Method)
	assert.False(t, last.Succeeded())
}

func TestFlow_Cancelled(t *testing.T) {
	sys := newSystem(t, deploy.FixtureParams)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StakeWithdraw(ctx, sys)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	defer goleak.VerifyNone(t)
	reports, err := RunAll(context.Background(), systemFactory(testActors(), deploy.DefaultParams), nil)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i, name := range Names() {
		assert.Equal(t, name, reports[i].Flow)
	}

	reports, err = RunAll(context.Background(), systemFactory(deploy.SingleActor(makeAddr(0x09)), deploy.FixtureParams), []string{Minting, Staking})
	require.NoError(t, err)
	assert.Equal(t, Minting, reports[0].Flow)
	assert.Equal(t, Staking, reports[1].Flow)
}

func TestRunAll_Errors(t *testing.T) {
	defer goleak.VerifyNone(t)
	_, err := RunAll(context.Background(), systemFactory(testActors(), deploy.FixtureParams), []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownFlow)

	_, err = RunAll(context.Background(), systemFactory(deploy.Actors{}, deploy.FixtureParams), nil)
	assert.ErrorIs(t, err, deploy.ErrMissingActor)
}

func TestRunAll_FailureStopsSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Every system has its policy operator revoked, so minting fails while
	// the other flows are still running.
	broken := func(ctx context.Context) (*deploy.System, error) {
		sys, err := systemFactory(testActors(), deploy.FixtureParams)(ctx)
		if err != nil {
			return nil, err
		}
		if err := sys.Registry.RevokeRole(sys.Actors.Governance, access.PolicyOperationsRole, sys.Actors.PolicyOperator); err != nil {
			return nil, err
		}
		return sys, nil
	}
	reports, err := RunAll(context.Background(), broken, nil)
	assert.ErrorIs(t, err, ErrStep)
	assert.Nil(t, reports)
}

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
)

func makeAddr(seed byte) chain.Address {
	var a chain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	deployer = makeAddr(0x01)
	alice    = makeAddr(0x0A)
	bob      = makeAddr(0x0B)
)

func newCitadel(t *testing.T) (*chain.Chain, *access.Registry, *Citadel) {
	t.Helper()
	c := chain.New(chain.WithGenesisTime(1_700_000_000))
	gac := access.New(c, deployer)
	require.NoError(t, gac.Initialize(deployer))
	ctdl := NewCitadel(c, deployer)
	require.NoError(t, ctdl.Initialize("Citadel", "CTDL", gac))
	return c, gac, ctdl
}

func sumBalances(tok ERC20, holders ...chain.Address) *big.Int {
	sum := new(big.Int)
	for _, h := range holders {
		sum.Add(sum, tok.BalanceOf(h))
	}
	return sum
}

func TestCitadel_Metadata(t *testing.T) {
	_, gac, ctdl := newCitadel(t)
	assert.Equal(t, "Citadel", ctdl.Name())
	assert.Equal(t, "CTDL", ctdl.Symbol())
	assert.Equal(t, uint8(18), ctdl.Decimals())
	assert.ErrorIs(t, ctdl.Initialize("x", "y", gac), ErrAlreadyInitialized)
}

func TestCitadel_MintRequiresRole(t *testing.T) {
	_, gac, ctdl := newCitadel(t)

	err := ctdl.Mint(deployer, alice, chain.Ether(1))
	assert.ErrorIs(t, err, ErrNotMinter)
	assert.Equal(t, 0, ctdl.TotalSupply().Sign())

	require.NoError(t, gac.GrantRole(deployer, access.CitadelMinterRole, deployer))
	require.NoError(t, ctdl.Mint(deployer, alice, chain.Ether(1)))
	assert.Equal(t, chain.Ether(1), ctdl.BalanceOf(alice))
	assert.Equal(t, chain.Ether(1), ctdl.TotalSupply())

	require.NoError(t, gac.RevokeRole(deployer, access.CitadelMinterRole, deployer))
	assert.ErrorIs(t, ctdl.Mint(deployer, alice, chain.Ether(1)), ErrNotMinter)
}

func TestCitadel_MintBlockedWhenPaused(t *testing.T) {
	_, gac, ctdl := newCitadel(t)
	require.NoError(t, gac.GrantRole(deployer, access.CitadelMinterRole, deployer))
	require.NoError(t, gac.GrantRole(deployer, access.PauserRole, deployer))
	require.NoError(t, gac.Pause(deployer))

	assert.ErrorIs(t, ctdl.Mint(deployer, alice, chain.Ether(1)), ErrPaused)
}

func TestCitadel_MintUninitialized(t *testing.T) {
	ctdl := NewCitadel(chain.New(), deployer)
	assert.ErrorIs(t, ctdl.Mint(deployer, alice, chain.Ether(1)), ErrNotInitialized)
}

func TestTransfer_Conservation(t *testing.T) {
	c := chain.New()
	tok := NewMock(c, deployer, "Test Token 2", "TEST2", 18)
	require.NoError(t, tok.Mint(alice, chain.Ether(10)))

	require.NoError(t, tok.Transfer(alice, bob, chain.Ether(3)))
	assert.Equal(t, chain.Ether(7), tok.BalanceOf(alice))
	assert.Equal(t, chain.Ether(3), tok.BalanceOf(bob))
	assert.Equal(t, tok.TotalSupply(), sumBalances(tok, alice, bob))

	err := tok.Transfer(bob, alice, chain.Ether(4))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, chain.Ether(3), tok.BalanceOf(bob), "failed transfer leaves balances untouched")

	assert.ErrorIs(t, tok.Transfer(alice, chain.ZeroAddress, big.NewInt(1)), ErrZeroAddress)
	assert.ErrorIs(t, tok.Transfer(alice, bob, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, tok.Transfer(alice, bob, nil), ErrNegativeAmount)
}

func TestTransferFrom_Allowance(t *testing.T) {
	tests := []struct {
		name      string
		allowance *big.Int
		amount    *big.Int
		wantErr   error
		wantLeft  *big.Int
	}{
		{"exact", chain.Ether(2), chain.Ether(2), nil, big.NewInt(0)},
		{"partial", chain.Ether(5), chain.Ether(2), nil, chain.Ether(3)},
		{"infinite", chain.MaxUint256, chain.Ether(2), nil, chain.MaxUint256},
		{"insufficient", chain.Ether(1), chain.Ether(2), ErrInsufficientAllowance, chain.Ether(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewMock(chain.New(), deployer, "Mock", "MCK", 18)
			require.NoError(t, tok.Mint(alice, chain.Ether(10)))
			require.NoError(t, tok.Approve(alice, bob, tt.allowance))

			err := tok.TransferFrom(bob, alice, bob, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, chain.Ether(10), tok.BalanceOf(alice))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.amount, tok.BalanceOf(bob))
			}
			assert.Equal(t, 0, tt.wantLeft.Cmp(tok.Allowance(alice, bob)))
		})
	}
}

func TestTransferFrom_BalanceTooLowKeepsAllowance(t *testing.T) {
	tok := NewMock(chain.New(), deployer, "Mock", "MCK", 18)
	require.NoError(t, tok.Mint(alice, chain.Ether(1)))
	require.NoError(t, tok.Approve(alice, bob, chain.Ether(5)))

	assert.ErrorIs(t, tok.TransferFrom(bob, alice, bob, chain.Ether(2)), ErrInsufficientBalance)
	assert.Equal(t, chain.Ether(5), tok.Allowance(alice, bob))
}

func TestIncreaseAllowance(t *testing.T) {
	tok := NewMock(chain.New(), deployer, "Mock", "MCK", 18)
	require.NoError(t, tok.Approve(alice, bob, chain.Ether(1)))
	require.NoError(t, tok.IncreaseAllowance(alice, bob, chain.Ether(2)))
	assert.Equal(t, chain.Ether(3), tok.Allowance(alice, bob))
}

func TestMock_MintAndBurn(t *testing.T) {
	tok := NewMock(chain.New(), deployer, "Mock", "MCK", 6)
	assert.Equal(t, uint8(6), tok.Decimals())

	require.NoError(t, tok.Mint(alice, big.NewInt(10_000_000)))
	require.NoError(t, tok.MintTo(bob, big.NewInt(5)))
	require.NoError(t, tok.Burn(alice, big.NewInt(1_000_000)))
	assert.Equal(t, big.NewInt(9_000_005), tok.TotalSupply())
	assert.ErrorIs(t, tok.Burn(bob, big.NewInt(6)), ErrInsufficientBalance)
}

func TestTransferEvents(t *testing.T) {
	c := chain.New()
	tok := NewMock(c, deployer, "Mock", "MCK", 18)
	require.NoError(t, tok.Mint(alice, chain.Ether(1)))

	rcpt, err := c.Exec(alice, tok.Address(), "transfer", func() error {
		return tok.Transfer(alice, bob, chain.Ether(1))
	})
	require.NoError(t, err)
	evs := rcpt.EventsNamed("Transfer")
	require.Len(t, evs, 1)
	assert.Equal(t, bob.Hex(), evs[0].Args["to"])
	assert.Equal(t, chain.Ether(1).String(), evs[0].Args["value"])
}

package deploy

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/vault"
	"github.com/citadelfi/libcitadel-go/vesting"
)

// TokenSpec describes a mock ERC20 to deploy.
type TokenSpec struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// SaleParams configures the token sale. Price is tokenOut base units per
// whole tokenIn; Cap is in tokenIn base units.
type SaleParams struct {
	TokenIn    TokenSpec
	StartDelay uint64
	Duration   uint64
	Price      *big.Int
	Cap        *big.Int

	// Refund receives unsold tokens. Zero means the sale owner.
	Refund chain.Address
}

// Params configures Deploy.
type Params struct {
	Fees            vault.Fees
	VestingDuration uint64

	// ExternalRewards are deployed as mock tokens and registered as locker
	// rewards distributed by the reward distributor.
	ExternalRewards []TokenSpec

	// RegisterVaultReward registers xCTDL itself as a locker reward.
	RegisterVaultReward bool

	// GrantDeployerMinter gives the deployer CITADEL_MINTER_ROLE.
	GrantDeployerMinter bool

	// TransferOwnership hands the vesting holder and locker to governance.
	TransferOwnership bool

	// Sale is skipped when nil.
	Sale *SaleParams
}

// Convex and IbBTC are the external reward tokens of the reference deployment.
var (
	Convex = TokenSpec{Name: "Convex Token", Symbol: "CVX", Decimals: 18}
	IbBTC  = TokenSpec{Name: "Interest-Bearing BTC", Symbol: "ibBTC", Decimals: 18}
)

// DefaultParams mirrors the reference deployment script: zero fees, CVX
// and ibBTC locker rewards plus xCTDL, a CVX-priced sale and a deployer
// that can mint.
func DefaultParams() Params {
	return Params{
		VestingDuration:     vesting.DefaultDuration,
		ExternalRewards:     []TokenSpec{Convex, IbBTC},
		RegisterVaultReward: true,
		GrantDeployerMinter: true,
		TransferOwnership:   true,
		Sale: &SaleParams{
			TokenIn:    Convex,
			StartDelay: 10,
			Duration:   chain.Day,
			Price:      chain.Ether(32),
			Cap:        chain.Ether(1_000_000),
		},
	}
}

// FixtureParams mirrors the integration test fixtures: the bare topology
// with no rewards registered and no sale.
func FixtureParams() Params {
	return Params{VestingDuration: vesting.DefaultDuration}
}

// Validate checks fee caps and sale parameters.
func (p Params) Validate() error {
	if err := p.Fees.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if p.VestingDuration == 0 {
		return fmt.Errorf("%w: zero vesting duration", ErrInvalidParams)
	}
	seen := make(map[string]bool)
	for _, t := range p.ExternalRewards {
		if t.Symbol == "" {
			return fmt.Errorf("%w: reward token without symbol", ErrInvalidParams)
		}
		if seen[t.Symbol] {
			return fmt.Errorf("%w: duplicate reward token %s", ErrInvalidParams, t.Symbol)
		}
		seen[t.Symbol] = true
	}
	if s := p.Sale; s != nil {
		if s.TokenIn.Symbol == "" {
			return fmt.Errorf("%w: sale token without symbol", ErrInvalidParams)
		}
		if s.Duration == 0 {
			return fmt.Errorf("%w: zero sale duration", ErrInvalidParams)
		}
		if s.Price == nil || s.Price.Sign() <= 0 {
			return fmt.Errorf("%w: sale price", ErrInvalidParams)
		}
		if s.Cap == nil || s.Cap.Sign() <= 0 {
			return fmt.Errorf("%w: sale cap", ErrInvalidParams)
		}
	}
	return nil
}

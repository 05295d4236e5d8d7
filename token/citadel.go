package token

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
)

// Citadel is the protocol token. Minting requires CITADEL_MINTER_ROLE on
// the access-control registry and an unpaused registry.
type Citadel struct {
	Standard

	ledger      *Ledger
	registry    access.Checker
	initialized bool
}

// NewCitadel deploys an uninitialized Citadel token.
func NewCitadel(c *chain.Chain, deployer chain.Address) *Citadel {
	l := NewLedger(c, c.NewContractAddress(deployer))
	return &Citadel{Standard: NewStandard(l), ledger: l}
}

// Initialize sets metadata and binds the access-control registry.
func (t *Citadel) Initialize(name, symbol string, registry access.Checker) error {
	if t.initialized {
		return ErrAlreadyInitialized
	}
	if registry == nil {
		return fmt.Errorf("%w: registry", ErrZeroAddress)
	}
	t.initialized = true
	t.ledger.SetMetadata(name, symbol, 18)
	t.registry = registry
	return nil
}

// Registry returns the bound access-control registry.
func (t *Citadel) Registry() access.Checker { return t.registry }

// Mint creates amount tokens for dest. The sender must be a minter.
func (t *Citadel) Mint(from, dest chain.Address, amount *big.Int) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if t.registry.Paused() {
		return ErrPaused
	}
	if !t.registry.HasRole(access.CitadelMinterRole, from) {
		return fmt.Errorf("%w: %s", ErrNotMinter, from.Hex())
	}
	return t.ledger.Mint(dest, amount)
}

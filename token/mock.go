package token

import (
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
)

// Mock is an open-mint ERC20 used as a sale payment token or an external
// reward token in deployments and flows.
type Mock struct {
	Standard

	ledger *Ledger
}

// NewMock deploys a mock token with the given metadata.
func NewMock(c *chain.Chain, deployer chain.Address, name, symbol string, decimals uint8) *Mock {
	l := NewLedger(c, c.NewContractAddress(deployer))
	l.SetMetadata(name, symbol, decimals)
	return &Mock{Standard: NewStandard(l), ledger: l}
}

// Mint credits amount to the sender.
func (m *Mock) Mint(from chain.Address, amount *big.Int) error {
	return m.ledger.Mint(from, amount)
}

// MintTo credits amount to `to`.
func (m *Mock) MintTo(to chain.Address, amount *big.Int) error {
	return m.ledger.Mint(to, amount)
}

// Burn destroys amount of the sender's tokens.
func (m *Mock) Burn(from chain.Address, amount *big.Int) error {
	return m.ledger.Burn(from, amount)
}

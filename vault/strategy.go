package vault

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

// Strategy deploys want on behalf of a vault. Calls that move funds are
// only accepted from the vault.
type Strategy interface {
	Address() chain.Address
	Want() chain.Address
	Vault() chain.Address
	// BalanceOf returns the want the strategy controls.
	BalanceOf() *big.Int
	Earn(from chain.Address) error
	Withdraw(from chain.Address, amount *big.Int) error
	WithdrawToVault(from chain.Address) error
}

// BasicStrategy holds want without deploying it. Anything it receives
// beyond the principal the vault sent counts as yield on Harvest.
type BasicStrategy struct {
	chain *chain.Chain
	addr  chain.Address

	initialized bool
	vault       *Vault
	want        token.ERC20
	principal   *big.Int
}

// Compile-time interface check.
var _ Strategy = (*BasicStrategy)(nil)

// NewBasicStrategy deploys an uninitialized strategy.
func NewBasicStrategy(c *chain.Chain, deployer chain.Address) *BasicStrategy {
	return &BasicStrategy{chain: c, addr: c.NewContractAddress(deployer), principal: new(big.Int)}
}

// Initialize binds the strategy to v and its want token.
func (s *BasicStrategy) Initialize(v *Vault, want token.ERC20) error {
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if v == nil || want == nil {
		return fmt.Errorf("%w: vault or want", ErrZeroAddress)
	}
	if v.Token() == nil || v.Token().Address() != want.Address() {
		return fmt.Errorf("%w: want %s", ErrStrategyMismatch, want.Address().Hex())
	}
	s.initialized = true
	s.vault = v
	s.want = want
	return nil
}

func (s *BasicStrategy) Address() chain.Address { return s.addr }

func (s *BasicStrategy) Want() chain.Address {
	if s.want == nil {
		return chain.ZeroAddress
	}
	return s.want.Address()
}

func (s *BasicStrategy) Vault() chain.Address {
	if s.vault == nil {
		return chain.ZeroAddress
	}
	return s.vault.Address()
}

func (s *BasicStrategy) BalanceOf() *big.Int {
	if !s.initialized {
		return new(big.Int)
	}
	return s.want.BalanceOf(s.addr)
}

func (s *BasicStrategy) onlyVault(from chain.Address) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if from != s.vault.Address() {
		return fmt.Errorf("%w: %s is not the vault", ErrUnauthorized, from.Hex())
	}
	return nil
}

// Earn books everything received so far as principal.
func (s *BasicStrategy) Earn(from chain.Address) error {
	if err := s.onlyVault(from); err != nil {
		return err
	}
	s.principal = s.BalanceOf()
	return nil
}

// Withdraw returns up to amount want to the vault.
func (s *BasicStrategy) Withdraw(from chain.Address, amount *big.Int) error {
	if err := s.onlyVault(from); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	out := chain.Clone(chain.MinBig(amount, s.BalanceOf()))
	if err := s.want.Transfer(s.addr, s.vault.Address(), out); err != nil {
		return err
	}
	s.principal.Sub(s.principal, chain.MinBig(out, s.principal))
	return nil
}

// WithdrawToVault returns all want to the vault.
func (s *BasicStrategy) WithdrawToVault(from chain.Address) error {
	if err := s.onlyVault(from); err != nil {
		return err
	}
	if err := s.want.Transfer(s.addr, s.vault.Address(), s.BalanceOf()); err != nil {
		return err
	}
	s.principal = new(big.Int)
	return nil
}

// Harvest reports want held above principal as yield and keeps it to
// compound. Only the vault's keeper, strategist or governance may harvest.
func (s *BasicStrategy) Harvest(from chain.Address) (*big.Int, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if from != s.vault.Keeper() && from != s.vault.Strategist() && from != s.vault.Governance() {
		return nil, fmt.Errorf("%w: %s may not harvest", ErrUnauthorized, from.Hex())
	}
	bal := s.BalanceOf()
	gain := new(big.Int).Sub(bal, s.principal)
	if gain.Sign() <= 0 {
		return new(big.Int), nil
	}
	if err := s.vault.ReportHarvest(s.addr, gain); err != nil {
		return nil, err
	}
	s.principal = bal
	return gain, nil
}

// SweepToVault sends a non-want token the strategy received to the vault
// and has the vault distribute it.
func (s *BasicStrategy) SweepToVault(from chain.Address, tok token.ERC20) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if from != s.vault.Keeper() && from != s.vault.Governance() {
		return fmt.Errorf("%w: %s may not sweep", ErrUnauthorized, from.Hex())
	}
	if tok == nil || tok.Address() == s.want.Address() || tok.Address() == s.vault.Address() {
		return ErrProtectedToken
	}
	bal := tok.BalanceOf(s.addr)
	if bal.Sign() > 0 {
		if err := tok.Transfer(s.addr, s.vault.Address(), bal); err != nil {
			return err
		}
	}
	return s.vault.ReportAdditionalToken(s.addr, tok)
}

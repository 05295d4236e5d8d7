// Package minter implements the Citadel reward minter. A policy operator
// mints new Citadel and splits it between the policy destination (as vault
// shares), the vault itself (raising the price per share) and the locker
// (as an xCitadel reward stream).
package minter

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/access"
	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/locker"
	"github.com/citadelfi/libcitadel-go/token"
	"github.com/citadelfi/libcitadel-go/vault"
)

// Mint records one distribution.
type Mint struct {
	Block     uint64
	Timestamp uint64
	Distribution
}

// Minter is the reward minter contract.
type Minter struct {
	chain *chain.Chain
	addr  chain.Address

	initialized bool
	registry    access.Checker
	citadel     *token.Citadel
	vault       *vault.Vault
	locker      *locker.Locker
	policyDest  chain.Address
	lastMint    *Mint
}

// New deploys an uninitialized minter.
func New(c *chain.Chain, deployer chain.Address) *Minter {
	return &Minter{chain: c, addr: c.NewContractAddress(deployer)}
}

// Initialize binds the registry, token, vault, locker and policy destination.
func (m *Minter) Initialize(registry access.Checker, citadel *token.Citadel, v *vault.Vault, l *locker.Locker, policyDest chain.Address) error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	if registry == nil || citadel == nil || v == nil || l == nil {
		return fmt.Errorf("%w: dependency", ErrZeroAddress)
	}
	if policyDest.IsZero() {
		return fmt.Errorf("%w: policy destination", ErrZeroAddress)
	}
	m.initialized = true
	m.registry = registry
	m.citadel = citadel
	m.vault = v
	m.locker = l
	m.policyDest = policyDest
	return nil
}

func (m *Minter) Address() chain.Address           { return m.addr }
func (m *Minter) PolicyDestination() chain.Address { return m.policyDest }

// LastMint returns the most recent distribution, or nil.
func (m *Minter) LastMint() *Mint {
	if m.lastMint == nil {
		return nil
	}
	cp := *m.lastMint
	cp.Funding = chain.Clone(cp.Funding)
	cp.Staking = chain.Clone(cp.Staking)
	cp.Locking = chain.Clone(cp.Locking)
	return &cp
}

// SetPolicyDestination changes who receives the funding share.
func (m *Minter) SetPolicyDestination(from, dest chain.Address) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if !m.registry.HasRole(access.ContractGovernanceRole, from) {
		return fmt.Errorf("%w: %s lacks CONTRACT_GOVERNANCE_ROLE", ErrUnauthorized, from.Hex())
	}
	if dest.IsZero() {
		return fmt.Errorf("%w: policy destination", ErrZeroAddress)
	}
	m.policyDest = dest
	m.chain.Emit(m.addr, "SetPolicyDestination", "destination", dest.Hex())
	return nil
}

// MintAndDistributeSplit splits total by p and distributes it.
func (m *Minter) MintAndDistributeSplit(from chain.Address, total *big.Int, p Policy) error {
	d, err := p.Split(total)
	if err != nil {
		return err
	}
	return m.MintAndDistribute(from, d.Funding, d.Staking, d.Locking)
}

// check validates a distribution, including the vault shares the locking
// bucket will buy. Nothing is written until it passes.
func (m *Minter) check(from chain.Address, d Distribution) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.registry.Paused() {
		return ErrPaused
	}
	if !m.registry.HasRole(access.PolicyOperationsRole, from) {
		return fmt.Errorf("%w: %s lacks POLICY_OPERATIONS_ROLE", ErrUnauthorized, from.Hex())
	}
	for _, a := range []*big.Int{d.Funding, d.Staking, d.Locking} {
		if a == nil || a.Sign() < 0 {
			return ErrNegativeAmount
		}
	}
	if d.Total().Sign() == 0 {
		return ErrNothingToMint
	}
	if !m.registry.HasRole(access.CitadelMinterRole, m.addr) {
		return ErrNotMinter
	}
	if d.Funding.Sign() > 0 || d.Locking.Sign() > 0 {
		if m.vault.Paused() || m.vault.DepositsPaused() {
			return ErrVaultPaused
		}
	}
	if d.Locking.Sign() == 0 {
		return nil
	}

	// Replay the funding deposit and staking transfer to price the
	// locking deposit.
	pool, supply := m.vault.Balance(), m.vault.TotalSupply()
	if d.Funding.Sign() > 0 {
		supply.Add(supply, vault.SharesFor(d.Funding, pool, supply))
		pool.Add(pool, d.Funding)
	}
	pool.Add(pool, d.Staking)
	shares := vault.SharesFor(d.Locking, pool, supply)
	if shares.Sign() == 0 {
		return fmt.Errorf("%w: %s citadel into a pool of %s for %s shares", ErrZeroShares, d.Locking, pool, supply)
	}
	if err := m.locker.CheckNotify(m.addr, m.vault.Address(), shares); err != nil {
		return fmt.Errorf("minter: locker: %w", err)
	}
	return nil
}

// MintAndDistribute mints funding+staking+locking Citadel and distributes it:
// funding is deposited into the vault for the policy destination, staking is
// sent to the vault without minting shares, and locking is deposited and the
// resulting shares are notified to the locker as rewards.
func (m *Minter) MintAndDistribute(from chain.Address, funding, staking, locking *big.Int) error {
	d := Distribution{Funding: funding, Staking: staking, Locking: locking}
	if err := m.check(from, d); err != nil {
		return err
	}
	if err := m.citadel.Mint(m.addr, m.addr, d.Total()); err != nil {
		return err
	}

	if deposit := new(big.Int).Add(funding, locking); deposit.Sign() > 0 {
		if err := m.citadel.Approve(m.addr, m.vault.Address(), deposit); err != nil {
			return err
		}
	}
	if funding.Sign() > 0 {
		if err := m.vault.DepositFor(m.addr, m.policyDest, funding); err != nil {
			return fmt.Errorf("minter: funding: %w", err)
		}
		m.chain.Emit(m.addr, "CitadelDistributionToFunding", "amount", funding.String())
	}
	if staking.Sign() > 0 {
		if err := m.citadel.Transfer(m.addr, m.vault.Address(), staking); err != nil {
			return fmt.Errorf("minter: staking: %w", err)
		}
		m.chain.Emit(m.addr, "CitadelDistributionToStaking", "amount", staking.String())
	}
	if locking.Sign() > 0 {
		before := m.vault.BalanceOf(m.addr)
		if err := m.vault.Deposit(m.addr, locking); err != nil {
			return fmt.Errorf("minter: locking deposit: %w", err)
		}
		shares := m.vault.BalanceOf(m.addr)
		shares.Sub(shares, before)
		if err := m.vault.Approve(m.addr, m.locker.Address(), shares); err != nil {
			return err
		}
		if err := m.locker.NotifyRewardAmount(m.addr, m.vault.Address(), shares); err != nil {
			return fmt.Errorf("minter: locking notify: %w", err)
		}
		m.chain.Emit(m.addr, "CitadelDistributionToLocking", "amount", locking.String(), "shares", shares.String())
	}

	m.lastMint = &Mint{
		Block:     m.chain.Height(),
		Timestamp: m.chain.Now(),
		Distribution: Distribution{
			Funding: chain.Clone(funding),
			Staking: chain.Clone(staking),
			Locking: chain.Clone(locking),
		},
	}
	m.chain.Emit(m.addr, "CitadelDistribution", "funding", funding.String(), "staking", staking.String(), "locking", locking.String())
	return nil
}

// Package token implements ERC20-style fungible tokens on the simulated
// chain: a shared balance ledger, the role-gated Citadel token and an
// open-mint mock used for payment and reward tokens.
package token

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
)

// ERC20 is the standard fungible-token surface. Mutating calls take the
// sender first.
type ERC20 interface {
	Address() chain.Address
	Name() string
	Symbol() string
	Decimals() uint8
	TotalSupply() *big.Int
	BalanceOf(account chain.Address) *big.Int
	Allowance(owner, spender chain.Address) *big.Int
	Transfer(from, to chain.Address, amount *big.Int) error
	Approve(owner, spender chain.Address, amount *big.Int) error
	TransferFrom(spender, from, to chain.Address, amount *big.Int) error
}

// Ledger holds balances, allowances and supply for one token. Contracts
// keep it in an unexported field and expose the transfer surface through
// Standard, so Mint and Burn stay private to the owning contract.
//
// Invariant: the sum of all balances equals TotalSupply.
type Ledger struct {
	chain    *chain.Chain
	addr     chain.Address
	name     string
	symbol   string
	decimals uint8

	supply     *big.Int
	balances   map[chain.Address]*big.Int
	allowances map[chain.Address]map[chain.Address]*big.Int
}

// NewLedger creates an empty ledger for the token at addr.
func NewLedger(c *chain.Chain, addr chain.Address) *Ledger {
	return &Ledger{
		chain:      c,
		addr:       addr,
		decimals:   18,
		supply:     new(big.Int),
		balances:   make(map[chain.Address]*big.Int),
		allowances: make(map[chain.Address]map[chain.Address]*big.Int),
	}
}

// SetMetadata sets name, symbol and decimals (called from Initialize).
func (l *Ledger) SetMetadata(name, symbol string, decimals uint8) {
	l.name = name
	l.symbol = symbol
	l.decimals = decimals
}

func (l *Ledger) Address() chain.Address { return l.addr }
func (l *Ledger) Name() string           { return l.name }
func (l *Ledger) Symbol() string         { return l.symbol }
func (l *Ledger) Decimals() uint8        { return l.decimals }

// TotalSupply returns a copy of the total supply.
func (l *Ledger) TotalSupply() *big.Int { return chain.Clone(l.supply) }

// BalanceOf returns a copy of account's balance.
func (l *Ledger) BalanceOf(account chain.Address) *big.Int {
	return chain.Clone(l.balances[account])
}

// Allowance returns a copy of what spender may still move from owner.
func (l *Ledger) Allowance(owner, spender chain.Address) *big.Int {
	if m, ok := l.allowances[owner]; ok {
		return chain.Clone(m[spender])
	}
	return new(big.Int)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Transfer moves amount from `from` to `to`.
func (l *Ledger) Transfer(from, to chain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: transfer %s -> %s", ErrZeroAddress, from.Hex(), to.Hex())
	}
	bal := l.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), chain.Clone(bal), amount)
	}
	l.move(from, to, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance.
func (l *Ledger) Approve(owner, spender chain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if owner.IsZero() || spender.IsZero() {
		return fmt.Errorf("%w: approve", ErrZeroAddress)
	}
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[chain.Address]*big.Int)
		l.allowances[owner] = m
	}
	m[spender] = chain.Clone(amount)
	l.chain.Emit(l.addr, "Approval", "owner", owner.Hex(), "spender", spender.Hex(), "value", amount.String())
	return nil
}

// IncreaseAllowance adds delta to spender's allowance over owner's balance.
func (l *Ledger) IncreaseAllowance(owner, spender chain.Address, delta *big.Int) error {
	if err := checkAmount(delta); err != nil {
		return err
	}
	return l.Approve(owner, spender, new(big.Int).Add(l.Allowance(owner, spender), delta))
}

// TransferFrom moves amount from `from` to `to` using spender's allowance.
// A MaxUint256 allowance is never decreased.
func (l *Ledger) TransferFrom(spender, from, to chain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	allowed := l.Allowance(from, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s may move %s of %s, needs %s",
			ErrInsufficientAllowance, spender.Hex(), allowed, from.Hex(), amount)
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	if allowed.Cmp(chain.MaxUint256) != 0 {
		l.allowances[from][spender] = allowed.Sub(allowed, amount)
	}
	return nil
}

// Mint creates amount new tokens for `to`.
func (l *Ledger) Mint(to chain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return fmt.Errorf("%w: mint", ErrZeroAddress)
	}
	l.supply.Add(l.supply, amount)
	l.credit(to, amount)
	l.chain.Emit(l.addr, "Transfer", "from", chain.ZeroAddress.Hex(), "to", to.Hex(), "value", amount.String())
	return nil
}

// Burn destroys amount of from's tokens.
func (l *Ledger) Burn(from chain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := l.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: burn %s from %s", ErrInsufficientBalance, amount, from.Hex())
	}
	bal.Sub(bal, amount)
	l.supply.Sub(l.supply, amount)
	l.chain.Emit(l.addr, "Transfer", "from", from.Hex(), "to", chain.ZeroAddress.Hex(), "value", amount.String())
	return nil
}

func (l *Ledger) credit(to chain.Address, amount *big.Int) {
	bal, ok := l.balances[to]
	if !ok {
		bal = new(big.Int)
		l.balances[to] = bal
	}
	bal.Add(bal, amount)
}

func (l *Ledger) move(from, to chain.Address, amount *big.Int) {
	l.balances[from].Sub(l.balances[from], amount)
	l.credit(to, amount)
	l.chain.Emit(l.addr, "Transfer", "from", from.Hex(), "to", to.Hex(), "value", amount.String())
}

// Standard exposes the ERC20 surface of a Ledger without Mint and Burn.
// Contracts embed it to become ERC20 tokens.
type Standard struct {
	ledger *Ledger
}

// NewStandard wraps l.
func NewStandard(l *Ledger) Standard { return Standard{ledger: l} }

// Compile-time interface check.
var _ ERC20 = Standard{}

func (s Standard) Address() chain.Address                   { return s.ledger.Address() }
func (s Standard) Name() string                             { return s.ledger.Name() }
func (s Standard) Symbol() string                           { return s.ledger.Symbol() }
func (s Standard) Decimals() uint8                          { return s.ledger.Decimals() }
func (s Standard) TotalSupply() *big.Int                    { return s.ledger.TotalSupply() }
func (s Standard) BalanceOf(account chain.Address) *big.Int { return s.ledger.BalanceOf(account) }
func (s Standard) Allowance(owner, spender chain.Address) *big.Int {
	return s.ledger.Allowance(owner, spender)
}

// Transfer moves amount from the sender to `to`.
func (s Standard) Transfer(from, to chain.Address, amount *big.Int) error {
	return s.ledger.Transfer(from, to, amount)
}

// Approve sets spender's allowance over the sender's balance.
func (s Standard) Approve(owner, spender chain.Address, amount *big.Int) error {
	return s.ledger.Approve(owner, spender, amount)
}

// IncreaseAllowance raises spender's allowance over the sender's balance.
func (s Standard) IncreaseAllowance(owner, spender chain.Address, delta *big.Int) error {
	return s.ledger.IncreaseAllowance(owner, spender, delta)
}

// TransferFrom moves `from`'s tokens using the sender's allowance.
func (s Standard) TransferFrom(spender, from, to chain.Address, amount *big.Int) error {
	return s.ledger.TransferFrom(spender, from, to, amount)
}

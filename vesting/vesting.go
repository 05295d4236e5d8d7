// Package vesting implements the linear vesting holder that receives
// vault withdrawals and releases them to the withdrawer over time.
package vesting

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

// DefaultDuration is the vesting length applied to new schedules.
const DefaultDuration = 21 * chain.Day

// Schedule is one recipient's vesting position.
type Schedule struct {
	UnlockBegin uint64
	UnlockEnd   uint64
	Locked      *big.Int
	Claimed     *big.Int
}

// Holder is the vesting contract.
type Holder struct {
	chain *chain.Chain
	addr  chain.Address

	initialized bool
	owner       chain.Address
	token       token.ERC20
	vault       chain.Address
	duration    uint64
	schedules   map[chain.Address]*Schedule
}

// New deploys an uninitialized holder owned by deployer.
func New(c *chain.Chain, deployer chain.Address) *Holder {
	return &Holder{
		chain:     c,
		addr:      c.NewContractAddress(deployer),
		owner:     deployer,
		duration:  DefaultDuration,
		schedules: make(map[chain.Address]*Schedule),
	}
}

// Address returns the contract address.
func (h *Holder) Address() chain.Address { return h.addr }

// Owner returns the current owner.
func (h *Holder) Owner() chain.Address { return h.owner }

// Token returns the vested token.
func (h *Holder) Token() token.ERC20 { return h.token }

// Vault returns the only address allowed to set up vesting.
func (h *Holder) Vault() chain.Address { return h.vault }

// VestingDuration returns the length applied to new schedules.
func (h *Holder) VestingDuration() uint64 { return h.duration }

// Initialize binds the vested token.
func (h *Holder) Initialize(tok token.ERC20) error {
	if h.initialized {
		return ErrAlreadyInitialized
	}
	if tok == nil {
		return fmt.Errorf("%w: token", ErrZeroAddress)
	}
	h.initialized = true
	h.token = tok
	return nil
}

func (h *Holder) onlyOwner(from chain.Address) error {
	if !h.initialized {
		return ErrNotInitialized
	}
	if from != h.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, from.Hex())
	}
	return nil
}

// SetVault binds the vault. It can only be set once.
func (h *Holder) SetVault(from, vault chain.Address) error {
	if err := h.onlyOwner(from); err != nil {
		return err
	}
	if vault.IsZero() {
		return fmt.Errorf("%w: vault", ErrZeroAddress)
	}
	if !h.vault.IsZero() {
		return ErrVaultAlreadySet
	}
	h.vault = vault
	h.chain.Emit(h.addr, "SetVault", "vault", vault.Hex())
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (h *Holder) TransferOwnership(from, newOwner chain.Address) error {
	if err := h.onlyOwner(from); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	h.owner = newOwner
	h.chain.Emit(h.addr, "OwnershipTransferred", "previousOwner", from.Hex(), "newOwner", newOwner.Hex())
	return nil
}

// SetVestingDuration changes the length of schedules set up from now on.
func (h *Holder) SetVestingDuration(from chain.Address, seconds uint64) error {
	if err := h.onlyOwner(from); err != nil {
		return err
	}
	if seconds == 0 {
		return ErrZeroDuration
	}
	h.duration = seconds
	h.chain.Emit(h.addr, "SetVestingDuration", "duration", fmt.Sprint(seconds))
	return nil
}

// CheckSetup reports whether SetupVesting(from, recipient, amount, _) would
// succeed, so callers can validate before moving funds.
func (h *Holder) CheckSetup(from, recipient chain.Address, amount *big.Int) error {
	if !h.initialized {
		return ErrNotInitialized
	}
	if from != h.vault || h.vault.IsZero() {
		return fmt.Errorf("%w: %s", ErrNotVault, from.Hex())
	}
	if recipient.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}

// SetupVesting starts (or extends) recipient's schedule with amount tokens
// that the vault has already transferred in. Any unclaimed remainder of an
// existing schedule is rolled into the new one.
func (h *Holder) SetupVesting(from, recipient chain.Address, amount *big.Int, unlockBegin uint64) error {
	if err := h.CheckSetup(from, recipient, amount); err != nil {
		return err
	}
	locked := chain.Clone(amount)
	if s, ok := h.schedules[recipient]; ok {
		locked.Add(locked, new(big.Int).Sub(s.Locked, s.Claimed))
	}
	s := &Schedule{
		UnlockBegin: unlockBegin,
		UnlockEnd:   unlockBegin + h.duration,
		Locked:      locked,
		Claimed:     new(big.Int),
	}
	h.schedules[recipient] = s
	h.chain.Emit(h.addr, "Vest", "recipient", recipient.Hex(), "amount", amount.String(),
		"unlockBegin", fmt.Sprint(s.UnlockBegin), "unlockEnd", fmt.Sprint(s.UnlockEnd))
	return nil
}

// Vesting returns a copy of recipient's schedule (zero values when none).
func (h *Holder) Vesting(recipient chain.Address) Schedule {
	s, ok := h.schedules[recipient]
	if !ok {
		return Schedule{Locked: new(big.Int), Claimed: new(big.Int)}
	}
	return Schedule{
		UnlockBegin: s.UnlockBegin,
		UnlockEnd:   s.UnlockEnd,
		Locked:      chain.Clone(s.Locked),
		Claimed:     chain.Clone(s.Claimed),
	}
}

// ClaimableBalance returns what recipient could claim now.
func (h *Holder) ClaimableBalance(recipient chain.Address) *big.Int {
	s, ok := h.schedules[recipient]
	if !ok {
		return new(big.Int)
	}
	return s.claimable(h.chain.Now())
}

func (s *Schedule) claimable(now uint64) *big.Int {
	if now < s.UnlockBegin {
		return new(big.Int)
	}
	vested := chain.Clone(s.Locked)
	if now < s.UnlockEnd {
		elapsed := new(big.Int).SetUint64(now - s.UnlockBegin)
		span := new(big.Int).SetUint64(s.UnlockEnd - s.UnlockBegin)
		vested.Mul(vested, elapsed).Quo(vested, span)
	}
	return vested.Sub(vested, s.Claimed)
}

// Claim releases up to amount of the sender's vested tokens to recipient.
// The amount is clamped to what is claimable.
func (h *Holder) Claim(from, recipient chain.Address, amount *big.Int) error {
	if !h.initialized {
		return ErrNotInitialized
	}
	if recipient.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	claimable := h.ClaimableBalance(from)
	if claimable.Sign() == 0 {
		return ErrNothingToClaim
	}
	out := chain.Clone(chain.MinBig(amount, claimable))
	if err := h.token.Transfer(h.addr, recipient, out); err != nil {
		return fmt.Errorf("vesting: claim transfer: %w", err)
	}
	s := h.schedules[from]
	s.Claimed.Add(s.Claimed, out)
	h.chain.Emit(h.addr, "Claimed", "owner", from.Hex(), "recipient", recipient.Hex(), "amount", out.String())
	return nil
}

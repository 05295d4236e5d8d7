// Package vault implements the auto-compounding vault (xCitadel). Deposits
// of the want token mint vault shares; withdrawals burn shares and route the
// underlying through the vesting holder. Idle funds can be handed to a
// pluggable Strategy whose gains are reported back with fees taken as shares.
package vault

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

const (
	// MaxBps is the basis-point denominator.
	MaxBps = 10_000

	// Hard caps on the four fee kinds.
	PerformanceFeeHardCap = 3_000
	WithdrawalFeeHardCap  = 200
	ManagementFeeHardCap  = 200

	// DefaultToEarnBps is the share of idle funds Earn hands to the strategy.
	DefaultToEarnBps = 9_500

	secsPerYear = 31_556_952
)

// Fees are the vault's fee rates in basis points.
type Fees struct {
	PerformanceFeeGovernance uint64
	PerformanceFeeStrategist uint64
	WithdrawalFee            uint64
	ManagementFee            uint64
}

// Validate checks every fee against its hard cap.
func (f Fees) Validate() error {
	switch {
	case f.PerformanceFeeGovernance > PerformanceFeeHardCap:
		return fmt.Errorf("%w: performance fee governance %d", ErrFeeTooHigh, f.PerformanceFeeGovernance)
	case f.PerformanceFeeStrategist > PerformanceFeeHardCap:
		return fmt.Errorf("%w: performance fee strategist %d", ErrFeeTooHigh, f.PerformanceFeeStrategist)
	case f.WithdrawalFee > WithdrawalFeeHardCap:
		return fmt.Errorf("%w: withdrawal fee %d", ErrFeeTooHigh, f.WithdrawalFee)
	case f.ManagementFee > ManagementFeeHardCap:
		return fmt.Errorf("%w: management fee %d", ErrFeeTooHigh, f.ManagementFee)
	}
	return nil
}

// Vester is the vesting holder that receives withdrawals.
type Vester interface {
	Address() chain.Address
	CheckSetup(from, recipient chain.Address, amount *big.Int) error
	SetupVesting(from, recipient chain.Address, amount *big.Int, unlockBegin uint64) error
}

// InitParams are the Initialize arguments.
type InitParams struct {
	Token       token.ERC20
	Governance  chain.Address
	Keeper      chain.Address
	Guardian    chain.Address
	Treasury    chain.Address
	Strategist  chain.Address
	RewardsDest chain.Address
	Vesting     Vester
	Name        string
	Symbol      string
	Fees        Fees
}

// Vault is the xCitadel contract. Its shares are an ERC20.
type Vault struct {
	token.Standard

	chain  *chain.Chain
	shares *token.Ledger

	initialized bool
	want        token.ERC20
	vesting     Vester
	strategy    Strategy

	governance  chain.Address
	keeper      chain.Address
	guardian    chain.Address
	treasury    chain.Address
	strategist  chain.Address
	rewardsDest chain.Address

	fees      Fees
	toEarnBps uint64

	paused        bool
	pausedDeposit bool

	lastHarvestedAt     uint64
	lastHarvestAmount   *big.Int
	assetsAtLastHarvest *big.Int
	lifeTimeEarned      *big.Int
}

// New deploys an uninitialized vault.
func New(c *chain.Chain, deployer chain.Address) *Vault {
	l := token.NewLedger(c, c.NewContractAddress(deployer))
	return &Vault{
		Standard:            token.NewStandard(l),
		chain:               c,
		shares:              l,
		toEarnBps:           DefaultToEarnBps,
		lastHarvestAmount:   new(big.Int),
		assetsAtLastHarvest: new(big.Int),
		lifeTimeEarned:      new(big.Int),
	}
}

// Initialize binds the want token, actors, vesting holder and fees.
func (v *Vault) Initialize(p InitParams) error {
	if v.initialized {
		return ErrAlreadyInitialized
	}
	if p.Token == nil || p.Vesting == nil {
		return fmt.Errorf("%w: token or vesting", ErrZeroAddress)
	}
	for name, a := range map[string]chain.Address{
		"governance": p.Governance, "keeper": p.Keeper, "guardian": p.Guardian,
		"treasury": p.Treasury, "rewards destination": p.RewardsDest,
	} {
		if a.IsZero() {
			return fmt.Errorf("%w: %s", ErrZeroAddress, name)
		}
	}
	if err := p.Fees.Validate(); err != nil {
		return err
	}

	v.initialized = true
	v.want = p.Token
	v.vesting = p.Vesting
	v.governance = p.Governance
	v.keeper = p.Keeper
	v.guardian = p.Guardian
	v.treasury = p.Treasury
	v.strategist = p.Strategist
	v.rewardsDest = p.RewardsDest
	v.fees = p.Fees
	v.lastHarvestedAt = v.chain.Now()
	v.shares.SetMetadata(p.Name, p.Symbol, p.Token.Decimals())
	return nil
}

// Accessors.

func (v *Vault) Token() token.ERC20            { return v.want }
func (v *Vault) Vesting() Vester               { return v.vesting }
func (v *Vault) Strategy() Strategy            { return v.strategy }
func (v *Vault) Governance() chain.Address     { return v.governance }
func (v *Vault) Keeper() chain.Address         { return v.keeper }
func (v *Vault) Guardian() chain.Address       { return v.guardian }
func (v *Vault) Treasury() chain.Address       { return v.treasury }
func (v *Vault) Strategist() chain.Address     { return v.strategist }
func (v *Vault) RewardsDest() chain.Address    { return v.rewardsDest }
func (v *Vault) Fees() Fees                    { return v.fees }
func (v *Vault) ToEarnBps() uint64             { return v.toEarnBps }
func (v *Vault) Paused() bool                  { return v.paused }
func (v *Vault) DepositsPaused() bool          { return v.pausedDeposit }
func (v *Vault) LastHarvestedAt() uint64       { return v.lastHarvestedAt }
func (v *Vault) LastHarvestAmount() *big.Int   { return chain.Clone(v.lastHarvestAmount) }
func (v *Vault) LifeTimeEarned() *big.Int      { return chain.Clone(v.lifeTimeEarned) }
func (v *Vault) AssetsAtLastHarvest() *big.Int { return chain.Clone(v.assetsAtLastHarvest) }

// Balance returns the want held idle plus what the strategy holds.
func (v *Vault) Balance() *big.Int {
	if !v.initialized {
		return new(big.Int)
	}
	b := v.want.BalanceOf(v.Address())
	if v.strategy != nil {
		b.Add(b, v.strategy.BalanceOf())
	}
	return b
}

// Available returns the idle want Earn would hand to the strategy.
func (v *Vault) Available() *big.Int {
	if !v.initialized {
		return new(big.Int)
	}
	b := v.want.BalanceOf(v.Address())
	b.Mul(b, new(big.Int).SetUint64(v.toEarnBps))
	return b.Quo(b, big.NewInt(MaxBps))
}

// PricePerFullShare returns the want value of 1e18 shares.
func (v *Vault) PricePerFullShare() *big.Int {
	supply := v.TotalSupply()
	if supply.Sign() == 0 {
		return chain.Clone(chain.WeiPerEther)
	}
	p := v.Balance()
	p.Mul(p, chain.WeiPerEther)
	return p.Quo(p, supply)
}

func (v *Vault) checkActive() error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if v.paused {
		return ErrPaused
	}
	return nil
}

// Deposit pulls amount want from the sender and mints shares to the sender.
func (v *Vault) Deposit(from chain.Address, amount *big.Int) error {
	return v.DepositFor(from, from, amount)
}

// DepositAll deposits the sender's whole want balance.
func (v *Vault) DepositAll(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	return v.DepositFor(from, from, v.want.BalanceOf(from))
}

// DepositFor pulls amount want from the sender and mints shares to recipient.
// The sender must have approved the vault.
func (v *Vault) DepositFor(from, recipient chain.Address, amount *big.Int) error {
	if err := v.checkActive(); err != nil {
		return err
	}
	if v.pausedDeposit {
		return ErrDepositsPaused
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if recipient.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}

	pool := v.Balance()
	before := v.want.BalanceOf(v.Address())
	if err := v.want.TransferFrom(v.Address(), from, v.Address(), amount); err != nil {
		return fmt.Errorf("vault: deposit: %w", err)
	}
	received := v.want.BalanceOf(v.Address())
	received.Sub(received, before)
	shares, err := v.mintSharesFor(recipient, received, pool)
	if err != nil {
		return err
	}
	v.chain.Emit(v.Address(), "Deposit", "sender", from.Hex(), "recipient", recipient.Hex(),
		"amount", received.String(), "shares", shares.String())
	return nil
}

// SharesFor returns the shares worth amount in a vault holding pool want
// against supply outstanding shares. An empty vault mints one share per want.
func SharesFor(amount, pool, supply *big.Int) *big.Int {
	shares := chain.Clone(amount)
	if supply.Sign() != 0 && pool.Sign() > 0 {
		shares.Mul(shares, supply).Quo(shares, pool)
	}
	return shares
}

// mintSharesFor mints the shares worth amount against a pool of size pool.
func (v *Vault) mintSharesFor(recipient chain.Address, amount, pool *big.Int) (*big.Int, error) {
	shares := SharesFor(amount, pool, v.TotalSupply())
	if shares.Sign() > 0 {
		if err := v.shares.Mint(recipient, shares); err != nil {
			return nil, fmt.Errorf("vault: mint shares: %w", err)
		}
	}
	return shares, nil
}

// WithdrawAll withdraws all of the sender's shares.
func (v *Vault) WithdrawAll(from chain.Address) error {
	return v.Withdraw(from, v.BalanceOf(from))
}

// Withdraw burns shares and vests their underlying value (less the
// withdrawal fee) to the sender through the vesting holder.
func (v *Vault) Withdraw(from chain.Address, shares *big.Int) error {
	if err := v.checkActive(); err != nil {
		return err
	}
	if shares == nil || shares.Sign() <= 0 {
		return ErrZeroAmount
	}
	if v.BalanceOf(from).Cmp(shares) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientShares, from.Hex(), v.BalanceOf(from), shares)
	}

	r := v.Balance()
	r.Mul(r, shares).Quo(r, v.TotalSupply())
	fee := bps(r, v.fees.WithdrawalFee)
	net := new(big.Int).Sub(r, fee)
	if err := v.vesting.CheckSetup(v.Address(), from, net); err != nil {
		return fmt.Errorf("vault: withdraw: %w", err)
	}

	idle := v.want.BalanceOf(v.Address())
	if idle.Cmp(r) < 0 {
		toWithdraw := new(big.Int).Sub(r, idle)
		if err := v.strategy.Withdraw(v.Address(), toWithdraw); err != nil {
			return fmt.Errorf("vault: withdraw from strategy: %w", err)
		}
		after := v.want.BalanceOf(v.Address())
		if diff := new(big.Int).Sub(after, idle); diff.Cmp(toWithdraw) < 0 {
			r = after
			fee = bps(r, v.fees.WithdrawalFee)
			net = new(big.Int).Sub(r, fee)
			if err := v.vesting.CheckSetup(v.Address(), from, net); err != nil {
				return fmt.Errorf("vault: withdraw after strategy shortfall: %w", err)
			}
		}
	}

	if err := v.shares.Burn(from, shares); err != nil {
		return err
	}
	if err := v.want.Transfer(v.Address(), v.vesting.Address(), net); err != nil {
		return fmt.Errorf("vault: transfer to vesting: %w", err)
	}
	if err := v.vesting.SetupVesting(v.Address(), from, net, v.chain.Now()); err != nil {
		return fmt.Errorf("vault: setup vesting: %w", err)
	}
	if fee.Sign() > 0 {
		pool := v.Balance()
		if _, err := v.mintSharesFor(v.treasury, fee, pool.Sub(pool, fee)); err != nil {
			return err
		}
	}
	v.chain.Emit(v.Address(), "Withdraw", "owner", from.Hex(), "shares", shares.String(),
		"amount", net.String(), "fee", fee.String())
	return nil
}

func bps(amount *big.Int, b uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(b))
	return out.Quo(out, big.NewInt(MaxBps))
}

func (v *Vault) onlyGovernance(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if from != v.governance {
		return fmt.Errorf("%w: %s is not governance", ErrUnauthorized, from.Hex())
	}
	return nil
}

func (v *Vault) onlyAuthorizedActors(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if from != v.governance && from != v.keeper {
		return fmt.Errorf("%w: %s is not keeper or governance", ErrUnauthorized, from.Hex())
	}
	return nil
}

func (v *Vault) onlyStrategy(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if v.strategy == nil {
		return ErrNoStrategy
	}
	if from != v.strategy.Address() {
		return fmt.Errorf("%w: %s is not the strategy", ErrUnauthorized, from.Hex())
	}
	return nil
}

// SetStrategy installs s. The current strategy, if any, must be empty.
func (v *Vault) SetStrategy(from chain.Address, s Strategy) error {
	if err := v.onlyGovernance(from); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: strategy", ErrZeroAddress)
	}
	if s.Want() != v.want.Address() || s.Vault() != v.Address() {
		return fmt.Errorf("%w: want %s vault %s", ErrStrategyMismatch, s.Want().Hex(), s.Vault().Hex())
	}
	if v.strategy != nil && v.strategy.BalanceOf().Sign() != 0 {
		return ErrStrategyNotEmpty
	}
	v.strategy = s
	v.chain.Emit(v.Address(), "SetStrategy", "strategy", s.Address().Hex())
	return nil
}

// Earn hands Available() want to the strategy and lets it deploy the funds.
func (v *Vault) Earn(from chain.Address) error {
	if err := v.onlyAuthorizedActors(from); err != nil {
		return err
	}
	if v.paused {
		return ErrPaused
	}
	if v.pausedDeposit {
		return ErrDepositsPaused
	}
	if v.strategy == nil {
		return ErrNoStrategy
	}
	amount := v.Available()
	if amount.Sign() > 0 {
		if err := v.want.Transfer(v.Address(), v.strategy.Address(), amount); err != nil {
			return err
		}
	}
	if err := v.strategy.Earn(v.Address()); err != nil {
		return fmt.Errorf("vault: strategy earn: %w", err)
	}
	v.chain.Emit(v.Address(), "Earn", "amount", amount.String())
	return nil
}

// WithdrawToVault pulls everything out of the strategy.
func (v *Vault) WithdrawToVault(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if from != v.governance && from != v.strategist {
		return fmt.Errorf("%w: %s is not governance or strategist", ErrUnauthorized, from.Hex())
	}
	if v.strategy == nil {
		return ErrNoStrategy
	}
	return v.strategy.WithdrawToVault(v.Address())
}

// ReportHarvest is called by the strategy after realizing harvested want.
// Performance fees and the management fee accrued since the last harvest
// are minted as shares to the treasury and strategist.
func (v *Vault) ReportHarvest(from chain.Address, harvested *big.Int) error {
	if err := v.onlyStrategy(from); err != nil {
		return err
	}
	if harvested == nil || harvested.Sign() < 0 {
		return ErrZeroAmount
	}
	bal := v.Balance()
	if bal.Cmp(harvested) < 0 {
		return fmt.Errorf("%w: %s > %s", ErrHarvestTooLarge, harvested, bal)
	}
	now := v.chain.Now()
	assetsAtHarvest := new(big.Int).Sub(bal, harvested)

	feeGov := bps(harvested, v.fees.PerformanceFeeGovernance)
	feeStrat := bps(harvested, v.fees.PerformanceFeeStrategist)
	mgmt := new(big.Int)
	if v.fees.ManagementFee > 0 && now > v.lastHarvestedAt {
		mgmt.Mul(assetsAtHarvest, new(big.Int).SetUint64(v.fees.ManagementFee))
		mgmt.Mul(mgmt, new(big.Int).SetUint64(now-v.lastHarvestedAt))
		mgmt.Quo(mgmt, big.NewInt(secsPerYear*MaxBps))
	}
	govTotal := new(big.Int).Add(feeGov, mgmt)
	pool := v.Balance()
	if govTotal.Sign() > 0 {
		if _, err := v.mintSharesFor(v.treasury, govTotal, new(big.Int).Sub(pool, govTotal)); err != nil {
			return err
		}
	}
	if feeStrat.Sign() > 0 && !v.strategist.IsZero() {
		rest := new(big.Int).Sub(pool, govTotal)
		if _, err := v.mintSharesFor(v.strategist, feeStrat, rest.Sub(rest, feeStrat)); err != nil {
			return err
		}
	}

	v.lastHarvestAmount = chain.Clone(harvested)
	v.lifeTimeEarned.Add(v.lifeTimeEarned, harvested)
	v.assetsAtLastHarvest = assetsAtHarvest
	v.lastHarvestedAt = now
	v.chain.Emit(v.Address(), "Harvested", "token", v.want.Address().Hex(), "amount", harvested.String(),
		"blockTimestamp", fmt.Sprint(now))
	return nil
}

// ReportAdditionalToken is called by the strategy when it left a non-want
// token in the vault. Performance fees go to the treasury and strategist;
// the rest is forwarded to the rewards destination.
func (v *Vault) ReportAdditionalToken(from chain.Address, tok token.ERC20) error {
	if err := v.onlyStrategy(from); err != nil {
		return err
	}
	if tok == nil {
		return fmt.Errorf("%w: token", ErrZeroAddress)
	}
	if tok.Address() == v.want.Address() || tok.Address() == v.Address() {
		return fmt.Errorf("%w: %s", ErrProtectedToken, tok.Address().Hex())
	}
	total := tok.BalanceOf(v.Address())
	feeGov := bps(total, v.fees.PerformanceFeeGovernance)
	feeStrat := bps(total, v.fees.PerformanceFeeStrategist)
	if v.strategist.IsZero() {
		feeStrat.SetInt64(0)
	}
	rest := new(big.Int).Sub(total, feeGov)
	rest.Sub(rest, feeStrat)

	for _, p := range []struct {
		to     chain.Address
		amount *big.Int
	}{{v.treasury, feeGov}, {v.strategist, feeStrat}, {v.rewardsDest, rest}} {
		if p.amount.Sign() == 0 {
			continue
		}
		if err := tok.Transfer(v.Address(), p.to, p.amount); err != nil {
			return err
		}
	}
	v.chain.Emit(v.Address(), "TreeDistribution", "token", tok.Address().Hex(), "amount", rest.String(),
		"blockTimestamp", fmt.Sprint(v.chain.Now()))
	return nil
}

// Setters (governance only).

func (v *Vault) setAddress(from chain.Address, dst *chain.Address, a chain.Address, name string) error {
	if err := v.onlyGovernance(from); err != nil {
		return err
	}
	if a.IsZero() {
		return fmt.Errorf("%w: %s", ErrZeroAddress, name)
	}
	*dst = a
	v.chain.Emit(v.Address(), "Set"+name, name, a.Hex())
	return nil
}

func (v *Vault) SetTreasury(from, a chain.Address) error {
	return v.setAddress(from, &v.treasury, a, "Treasury")
}

func (v *Vault) SetStrategist(from, a chain.Address) error {
	return v.setAddress(from, &v.strategist, a, "Strategist")
}

func (v *Vault) SetKeeper(from, a chain.Address) error {
	return v.setAddress(from, &v.keeper, a, "Keeper")
}

func (v *Vault) SetGuardian(from, a chain.Address) error {
	return v.setAddress(from, &v.guardian, a, "Guardian")
}

func (v *Vault) SetGovernance(from, a chain.Address) error {
	return v.setAddress(from, &v.governance, a, "Governance")
}

func (v *Vault) SetRewardsDest(from, a chain.Address) error {
	return v.setAddress(from, &v.rewardsDest, a, "RewardsDest")
}

// SetFees replaces all four fee rates.
func (v *Vault) SetFees(from chain.Address, f Fees) error {
	if err := v.onlyGovernance(from); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	v.fees = f
	v.chain.Emit(v.Address(), "SetFees",
		"performanceFeeGovernance", fmt.Sprint(f.PerformanceFeeGovernance),
		"performanceFeeStrategist", fmt.Sprint(f.PerformanceFeeStrategist),
		"withdrawalFee", fmt.Sprint(f.WithdrawalFee),
		"managementFee", fmt.Sprint(f.ManagementFee))
	return nil
}

// SetToEarnBps sets the share of idle funds Earn moves to the strategy.
func (v *Vault) SetToEarnBps(from chain.Address, b uint64) error {
	if err := v.onlyGovernance(from); err != nil {
		return err
	}
	if b > MaxBps {
		return fmt.Errorf("%w: %d", ErrInvalidBps, b)
	}
	v.toEarnBps = b
	v.chain.Emit(v.Address(), "SetToEarnBps", "newEarnToBps", fmt.Sprint(b))
	return nil
}

func (v *Vault) onlyPausers(from chain.Address) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if from != v.guardian && from != v.governance {
		return fmt.Errorf("%w: %s is not guardian or governance", ErrUnauthorized, from.Hex())
	}
	return nil
}

// Pause blocks deposits, withdrawals and Earn.
func (v *Vault) Pause(from chain.Address) error {
	if err := v.onlyPausers(from); err != nil {
		return err
	}
	if v.paused {
		return ErrPaused
	}
	v.paused = true
	v.chain.Emit(v.Address(), "Paused", "account", from.Hex())
	return nil
}

// Unpause lifts Pause.
func (v *Vault) Unpause(from chain.Address) error {
	if err := v.onlyPausers(from); err != nil {
		return err
	}
	if !v.paused {
		return ErrNotPaused
	}
	v.paused = false
	v.chain.Emit(v.Address(), "Unpaused", "account", from.Hex())
	return nil
}

// PauseDeposits blocks deposits only.
func (v *Vault) PauseDeposits(from chain.Address) error {
	if err := v.onlyPausers(from); err != nil {
		return err
	}
	v.pausedDeposit = true
	v.chain.Emit(v.Address(), "PauseDeposits", "pausedBy", from.Hex())
	return nil
}

// UnpauseDeposits lifts PauseDeposits.
func (v *Vault) UnpauseDeposits(from chain.Address) error {
	if err := v.onlyPausers(from); err != nil {
		return err
	}
	v.pausedDeposit = false
	v.chain.Emit(v.Address(), "UnpauseDeposits", "pausedBy", from.Hex())
	return nil
}

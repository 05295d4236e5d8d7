// Package locker implements the time-locking reward distributor
// (vlCitadel). Vault shares are locked for LockDuration; while locked they
// earn every registered reward token pro rata to the boosted balance.
// Expired locks are withdrawn or relocked by their owner, or kicked by
// anyone after a grace period for a share of the lock.
package locker

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

const (
	// RewardsDuration is the epoch length and the reward streaming period.
	RewardsDuration = chain.Week

	// LockDuration is how long a lock stays locked.
	LockDuration = 21 * RewardsDuration

	// Denominator is the basis-point denominator.
	Denominator = 10_000

	defaultKickRewardPerEpoch   = 100
	defaultKickRewardEpochDelay = 4
	defaultBoostRate            = 10_000

	maxBoostPaymentCap    = 1_500
	maxBoostRateCap       = 30_000
	maxKickRewardPerEpoch = 500
	minKickRewardDelay    = 2
)

// LockedBalance is one lock of an account.
type LockedBalance struct {
	Amount     *big.Int
	Boosted    *big.Int
	UnlockTime uint64
}

// Epoch is a weekly checkpoint of boosted supply locked during that week.
type Epoch struct {
	Supply *big.Int
	Date   uint64
}

type balances struct {
	locked          *big.Int
	boosted         *big.Int
	nextUnlockIndex int
}

// Locker is the vlCitadel contract.
type Locker struct {
	chain *chain.Chain
	addr  chain.Address

	initialized bool
	owner       chain.Address
	staking     token.ERC20
	name        string
	symbol      string
	decimals    uint8

	lockedSupply  *big.Int
	boostedSupply *big.Int
	epochs        []Epoch
	balances      map[chain.Address]*balances
	userLocks     map[chain.Address][]*LockedBalance

	rewardTokens       []chain.Address
	rewardData         map[chain.Address]*rewardState
	rewardDistributors map[chain.Address]map[chain.Address]bool
	userRewardPaid     map[chain.Address]map[chain.Address]*big.Int
	rewards            map[chain.Address]map[chain.Address]*big.Int

	kickRewardPerEpoch   uint64
	kickRewardEpochDelay uint64

	maximumBoostPayment     uint64
	boostRate               uint64
	nextMaximumBoostPayment uint64
	nextBoostRate           uint64
	boostPayment            chain.Address

	isShutdown bool
}

// New deploys an uninitialized locker owned by deployer. The first epoch
// starts at the beginning of the current week.
func New(c *chain.Chain, deployer chain.Address) *Locker {
	l := &Locker{
		chain:                c,
		addr:                 c.NewContractAddress(deployer),
		owner:                deployer,
		lockedSupply:         new(big.Int),
		boostedSupply:        new(big.Int),
		balances:             make(map[chain.Address]*balances),
		userLocks:            make(map[chain.Address][]*LockedBalance),
		rewardData:           make(map[chain.Address]*rewardState),
		rewardDistributors:   make(map[chain.Address]map[chain.Address]bool),
		userRewardPaid:       make(map[chain.Address]map[chain.Address]*big.Int),
		rewards:              make(map[chain.Address]map[chain.Address]*big.Int),
		kickRewardPerEpoch:   defaultKickRewardPerEpoch,
		kickRewardEpochDelay: defaultKickRewardEpochDelay,
		boostRate:            defaultBoostRate,
		nextBoostRate:        defaultBoostRate,
		boostPayment:         deployer,
	}
	l.epochs = []Epoch{{Supply: new(big.Int), Date: epochStart(c.Now())}}
	return l
}

func epochStart(ts uint64) uint64 { return ts / RewardsDuration * RewardsDuration }

// Initialize binds the staking token and the locker's display metadata.
func (l *Locker) Initialize(staking token.ERC20, name, symbol string) error {
	if l.initialized {
		return ErrAlreadyInitialized
	}
	if staking == nil {
		return fmt.Errorf("%w: staking token", ErrZeroAddress)
	}
	l.initialized = true
	l.staking = staking
	l.name = name
	l.symbol = symbol
	l.decimals = staking.Decimals()
	return nil
}

func (l *Locker) Address() chain.Address       { return l.addr }
func (l *Locker) Owner() chain.Address         { return l.owner }
func (l *Locker) Name() string                 { return l.name }
func (l *Locker) Symbol() string               { return l.symbol }
func (l *Locker) Decimals() uint8              { return l.decimals }
func (l *Locker) StakingToken() token.ERC20    { return l.staking }
func (l *Locker) IsShutdown() bool             { return l.isShutdown }
func (l *Locker) LockedSupply() *big.Int       { return chain.Clone(l.lockedSupply) }
func (l *Locker) BoostedSupply() *big.Int      { return chain.Clone(l.boostedSupply) }
func (l *Locker) MaximumBoostPayment() uint64  { return l.maximumBoostPayment }
func (l *Locker) BoostRate() uint64            { return l.boostRate }
func (l *Locker) KickRewardPerEpoch() uint64   { return l.kickRewardPerEpoch }
func (l *Locker) KickRewardEpochDelay() uint64 { return l.kickRewardEpochDelay }

func (l *Locker) onlyOwner(from chain.Address) error {
	if !l.initialized {
		return ErrNotInitialized
	}
	if from != l.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, from.Hex())
	}
	return nil
}

func (l *Locker) balanceOf(account chain.Address) *balances {
	b, ok := l.balances[account]
	if !ok {
		b = &balances{locked: new(big.Int), boosted: new(big.Int)}
		l.balances[account] = b
	}
	return b
}

// Lock pulls amount staking tokens from the sender and locks them for
// account. spendRatio (bps) of the amount is paid to the boost receiver in
// exchange for a proportionally boosted balance.
func (l *Locker) Lock(from, account chain.Address, amount *big.Int, spendRatio uint64) error {
	if !l.initialized {
		return ErrNotInitialized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if account.IsZero() {
		return fmt.Errorf("%w: account", ErrZeroAddress)
	}
	if spendRatio > l.maximumBoostPayment {
		return fmt.Errorf("%w: %d > %d", ErrSpendRatio, spendRatio, l.maximumBoostPayment)
	}
	if l.isShutdown {
		return ErrShutdown
	}
	if err := l.staking.TransferFrom(l.addr, from, l.addr, amount); err != nil {
		return fmt.Errorf("locker: lock: %w", err)
	}

	l.updateReward(account)
	l.CheckpointEpoch()

	lockAmount := chain.Clone(amount)
	spend := new(big.Int).Mul(amount, new(big.Int).SetUint64(spendRatio))
	spend.Quo(spend, big.NewInt(Denominator))
	if spend.Sign() > 0 {
		lockAmount.Sub(lockAmount, spend)
		if err := l.staking.Transfer(l.addr, l.boostPayment, spend); err != nil {
			return err
		}
	}
	l.lock(account, lockAmount, spendRatio, amount)
	return nil
}

// lock records a lock of amount for account; tokens are already held.
func (l *Locker) lock(account chain.Address, amount *big.Int, spendRatio uint64, paid *big.Int) {
	boostRatio := uint64(0)
	if l.maximumBoostPayment > 0 {
		boostRatio = l.boostRate * spendRatio / l.maximumBoostPayment
	}
	boosted := new(big.Int).Mul(amount, new(big.Int).SetUint64(Denominator+boostRatio))
	boosted.Quo(boosted, big.NewInt(Denominator))

	bal := l.balanceOf(account)
	bal.locked.Add(bal.locked, amount)
	bal.boosted.Add(bal.boosted, boosted)
	l.lockedSupply.Add(l.lockedSupply, amount)
	l.boostedSupply.Add(l.boostedSupply, boosted)

	lockEpoch := epochStart(l.chain.Now())
	unlockTime := lockEpoch + LockDuration
	locks := l.userLocks[account]
	if n := len(locks); n == 0 || locks[n-1].UnlockTime < unlockTime {
		l.userLocks[account] = append(locks, &LockedBalance{
			Amount:     chain.Clone(amount),
			Boosted:    boosted,
			UnlockTime: unlockTime,
		})
	} else {
		last := locks[n-1]
		last.Amount.Add(last.Amount, amount)
		last.Boosted.Add(last.Boosted, boosted)
	}

	e := &l.epochs[len(l.epochs)-1]
	e.Supply.Add(e.Supply, boosted)

	l.chain.Emit(l.addr, "Staked", "user", account.Hex(), "paidAmount", paid.String(),
		"lockedAmount", amount.String(), "boostedAmount", boosted.String())
}

// CheckpointEpoch appends empty epochs up to the current week. Boost
// parameter changes take effect when a new epoch is reached.
func (l *Locker) CheckpointEpoch() {
	current := epochStart(l.chain.Now())
	if l.epochs[len(l.epochs)-1].Date >= current {
		return
	}
	for l.epochs[len(l.epochs)-1].Date != current {
		next := l.epochs[len(l.epochs)-1].Date + RewardsDuration
		l.epochs = append(l.epochs, Epoch{Supply: new(big.Int), Date: next})
	}
	l.boostRate = l.nextBoostRate
	l.maximumBoostPayment = l.nextMaximumBoostPayment
}

// ProcessExpiredLocks withdraws the sender's expired locks to the sender,
// or relocks them when relock is set. After Shutdown every lock counts as
// expired.
func (l *Locker) ProcessExpiredLocks(from chain.Address, relock bool) error {
	return l.processExpiredLocks(from, relock, from, from, 0)
}

// WithdrawExpiredLocksTo withdraws the sender's expired locks to `to`.
func (l *Locker) WithdrawExpiredLocksTo(from, to chain.Address) error {
	if to.IsZero() {
		return fmt.Errorf("%w: to", ErrZeroAddress)
	}
	return l.processExpiredLocks(from, false, to, from, 0)
}

// KickExpiredLocks withdraws account's locks that expired more than the
// kick delay ago. The sender earns a kick reward out of those locks.
func (l *Locker) KickExpiredLocks(from, account chain.Address) error {
	return l.processExpiredLocks(account, false, account, from, RewardsDuration*l.kickRewardEpochDelay)
}

func (l *Locker) processExpiredLocks(account chain.Address, relock bool, withdrawTo, rewardTo chain.Address, checkDelay uint64) error {
	if !l.initialized {
		return ErrNotInitialized
	}
	now := l.chain.Now()
	if now < checkDelay {
		return ErrNoExpiredLocks
	}
	if relock && l.isShutdown {
		return ErrShutdown
	}
	if withdrawTo.IsZero() || rewardTo.IsZero() {
		return fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	cutoff := now - checkDelay
	locks := l.userLocks[account]
	bal, ok := l.balances[account]
	if !ok || len(locks) == 0 || bal.nextUnlockIndex >= len(locks) {
		return ErrNoExpiredLocks
	}

	locked := new(big.Int)
	boosted := new(big.Int)
	reward := new(big.Int)
	next := bal.nextUnlockIndex
	kickShare := func(lb *LockedBalance) *big.Int {
		epochsOver := uint64(0)
		if start := epochStart(cutoff); start > lb.UnlockTime {
			epochsOver = (start - lb.UnlockTime) / RewardsDuration
		}
		rate := l.kickRewardPerEpoch * (epochsOver + 1)
		if rate > Denominator {
			rate = Denominator
		}
		r := new(big.Int).Mul(lb.Amount, new(big.Int).SetUint64(rate))
		return r.Quo(r, big.NewInt(Denominator))
	}

	last := locks[len(locks)-1]
	if l.isShutdown || last.UnlockTime <= cutoff {
		// Everything has expired: release the whole balance in one step.
		locked.Set(bal.locked)
		boosted.Set(bal.boosted)
		next = len(locks)
		if checkDelay > 0 {
			reward = kickShare(last)
		}
	} else {
		for ; next < len(locks); next++ {
			lb := locks[next]
			if lb.UnlockTime > cutoff {
				break
			}
			locked.Add(locked, lb.Amount)
			boosted.Add(boosted, lb.Boosted)
			if checkDelay > 0 {
				reward.Add(reward, kickShare(lb))
			}
		}
	}
	if locked.Sign() == 0 {
		return ErrNoExpiredLocks
	}

	l.updateReward(account)
	if relock {
		l.CheckpointEpoch()
	}

	bal.nextUnlockIndex = next
	bal.locked.Sub(bal.locked, locked)
	bal.boosted.Sub(bal.boosted, boosted)
	l.lockedSupply.Sub(l.lockedSupply, locked)
	l.boostedSupply.Sub(l.boostedSupply, boosted)
	l.chain.Emit(l.addr, "Withdrawn", "user", account.Hex(), "amount", locked.String(), "relocked", fmt.Sprint(relock))

	if reward.Sign() > 0 {
		locked.Sub(locked, reward)
		if err := l.staking.Transfer(l.addr, rewardTo, reward); err != nil {
			return err
		}
		l.chain.Emit(l.addr, "KickReward", "user", rewardTo.Hex(), "kicked", account.Hex(), "reward", reward.String())
	}

	if relock {
		l.lock(withdrawTo, locked, 0, locked)
		return nil
	}
	return l.staking.Transfer(l.addr, withdrawTo, locked)
}

// LockedBalanceOf returns account's total locked amount, expired or not.
func (l *Locker) LockedBalanceOf(account chain.Address) *big.Int {
	if b, ok := l.balances[account]; ok {
		return chain.Clone(b.locked)
	}
	return new(big.Int)
}

// LockedBalances splits account's locks into unlockable and still locked.
func (l *Locker) LockedBalances(account chain.Address) (total, unlockable, locked *big.Int, data []LockedBalance) {
	total, unlockable, locked = new(big.Int), new(big.Int), new(big.Int)
	b, ok := l.balances[account]
	if !ok {
		return total, unlockable, locked, nil
	}
	total.Set(b.locked)
	now := l.chain.Now()
	for _, lb := range l.userLocks[account][b.nextUnlockIndex:] {
		if lb.UnlockTime > now {
			locked.Add(locked, lb.Amount)
			data = append(data, LockedBalance{
				Amount:     chain.Clone(lb.Amount),
				Boosted:    chain.Clone(lb.Boosted),
				UnlockTime: lb.UnlockTime,
			})
		} else {
			unlockable.Add(unlockable, lb.Amount)
		}
	}
	return total, unlockable, locked, data
}

// BalanceOf returns account's boosted voting balance: unexpired locks,
// excluding any lock made in the current epoch.
func (l *Locker) BalanceOf(account chain.Address) *big.Int {
	b, ok := l.balances[account]
	if !ok {
		return new(big.Int)
	}
	now := l.chain.Now()
	amount := chain.Clone(b.boosted)
	locks := l.userLocks[account]
	for _, lb := range locks[b.nextUnlockIndex:] {
		if lb.UnlockTime > now {
			break
		}
		amount.Sub(amount, lb.Boosted)
	}
	if n := len(locks); n > 0 && n > b.nextUnlockIndex && locks[n-1].UnlockTime-LockDuration == epochStart(now) {
		amount.Sub(amount, locks[n-1].Boosted)
	}
	return amount
}

// BalanceAtEpochOf returns account's boosted balance as of epoch index.
func (l *Locker) BalanceAtEpochOf(epoch int, account chain.Address) *big.Int {
	amount := new(big.Int)
	if epoch < 0 || epoch >= len(l.epochs) {
		return amount
	}
	epochTime := l.epochs[epoch].Date
	locks := l.userLocks[account]
	for i := len(locks) - 1; i >= 0; i-- {
		lockEpoch := locks[i].UnlockTime - LockDuration
		if lockEpoch >= epochTime {
			continue
		}
		if lockEpoch+LockDuration <= epochTime {
			break
		}
		amount.Add(amount, locks[i].Boosted)
	}
	return amount
}

// TotalSupply returns the boosted supply of unexpired locks made before
// the current epoch.
func (l *Locker) TotalSupply() *big.Int {
	return l.supplyAt(epochStart(l.chain.Now()))
}

// TotalSupplyAtEpoch returns TotalSupply as of epoch index.
func (l *Locker) TotalSupplyAtEpoch(epoch int) *big.Int {
	if epoch < 0 || epoch >= len(l.epochs) {
		return new(big.Int)
	}
	return l.supplyAt(l.epochs[epoch].Date)
}

func (l *Locker) supplyAt(epochTime uint64) *big.Int {
	supply := new(big.Int)
	for i := len(l.epochs) - 1; i >= 0; i-- {
		e := l.epochs[i]
		if e.Date >= epochTime {
			continue
		}
		if e.Date+LockDuration <= epochTime {
			break
		}
		supply.Add(supply, e.Supply)
	}
	return supply
}

// EpochCount returns the number of checkpointed epochs.
func (l *Locker) EpochCount() int { return len(l.epochs) }

// Epoch returns a copy of epoch i.
func (l *Locker) Epoch(i int) Epoch {
	e := l.epochs[i]
	return Epoch{Supply: chain.Clone(e.Supply), Date: e.Date}
}

// FindEpochID returns the index of the last checkpointed epoch starting at
// or before ts.
func (l *Locker) FindEpochID(ts uint64) int {
	ts = epochStart(ts)
	i := sort.Search(len(l.epochs), func(i int) bool { return l.epochs[i].Date > ts })
	if i == 0 {
		return 0
	}
	return i - 1
}

// SetKickIncentive sets the kick reward per epoch (bps, <= 500) and the
// number of epochs (>= 2) before a lock can be kicked.
func (l *Locker) SetKickIncentive(from chain.Address, ratePerEpoch, delayEpochs uint64) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if ratePerEpoch > maxKickRewardPerEpoch || delayEpochs < minKickRewardDelay {
		return fmt.Errorf("%w: kick rate %d delay %d", ErrInvalidParam, ratePerEpoch, delayEpochs)
	}
	l.kickRewardPerEpoch = ratePerEpoch
	l.kickRewardEpochDelay = delayEpochs
	l.chain.Emit(l.addr, "KickIncentiveSet", "rate", fmt.Sprint(ratePerEpoch), "delay", fmt.Sprint(delayEpochs))
	return nil
}

// SetBoost schedules new boost parameters for the next epoch.
func (l *Locker) SetBoost(from chain.Address, maxPayment, rate uint64, receiver chain.Address) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if maxPayment >= maxBoostPaymentCap || rate >= maxBoostRateCap {
		return fmt.Errorf("%w: boost payment %d rate %d", ErrInvalidParam, maxPayment, rate)
	}
	if receiver.IsZero() {
		return fmt.Errorf("%w: boost receiver", ErrZeroAddress)
	}
	l.nextMaximumBoostPayment = maxPayment
	l.nextBoostRate = rate
	l.boostPayment = receiver
	return nil
}

// Shutdown stops new locks and releases every existing lock.
func (l *Locker) Shutdown(from chain.Address) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	l.isShutdown = true
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (l *Locker) TransferOwnership(from, newOwner chain.Address) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	l.owner = newOwner
	l.chain.Emit(l.addr, "OwnershipTransferred", "previousOwner", from.Hex(), "newOwner", newOwner.Hex())
	return nil
}

// RecoverERC20 sends a stray token to the owner. The staking token and
// registered reward tokens cannot be recovered.
func (l *Locker) RecoverERC20(from chain.Address, tok token.ERC20, amount *big.Int) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if tok == nil {
		return fmt.Errorf("%w: token", ErrZeroAddress)
	}
	if _, isReward := l.rewardData[tok.Address()]; isReward || tok.Address() == l.staking.Address() {
		return fmt.Errorf("%w: %s", ErrProtectedToken, tok.Address().Hex())
	}
	if err := tok.Transfer(l.addr, l.owner, amount); err != nil {
		return err
	}
	l.chain.Emit(l.addr, "Recovered", "token", tok.Address().Hex(), "amount", amount.String())
	return nil
}

package locker

import (
	"fmt"
	"math/big"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/token"
)

type rewardState struct {
	token                token.ERC20
	periodFinish         uint64
	lastUpdateTime       uint64
	rewardRate           *big.Int
	rewardPerTokenStored *big.Int
}

// EarnedData is one reward token and the amount an account can claim.
type EarnedData struct {
	Token  chain.Address
	Amount *big.Int
}

// AddReward registers a reward token and its first approved distributor.
func (l *Locker) AddReward(from chain.Address, tok token.ERC20, distributor chain.Address) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if tok == nil || distributor.IsZero() {
		return fmt.Errorf("%w: reward token or distributor", ErrZeroAddress)
	}
	if _, ok := l.rewardData[tok.Address()]; ok {
		return fmt.Errorf("%w: %s", ErrRewardExists, tok.Address().Hex())
	}
	now := l.chain.Now()
	l.rewardTokens = append(l.rewardTokens, tok.Address())
	l.rewardData[tok.Address()] = &rewardState{
		token:                tok,
		periodFinish:         now,
		lastUpdateTime:       now,
		rewardRate:           new(big.Int),
		rewardPerTokenStored: new(big.Int),
	}
	l.rewardDistributors[tok.Address()] = map[chain.Address]bool{distributor: true}
	l.chain.Emit(l.addr, "RewardTokenAdded", "token", tok.Address().Hex(), "distributor", distributor.Hex())
	return nil
}

// ApproveRewardDistributor allows or revokes distributor for a reward token.
func (l *Locker) ApproveRewardDistributor(from, rewardToken, distributor chain.Address, approved bool) error {
	if err := l.onlyOwner(from); err != nil {
		return err
	}
	if _, ok := l.rewardData[rewardToken]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReward, rewardToken.Hex())
	}
	l.rewardDistributors[rewardToken][distributor] = approved
	return nil
}

// IsRewardDistributor reports whether distributor may notify rewardToken.
func (l *Locker) IsRewardDistributor(rewardToken, distributor chain.Address) bool {
	return l.rewardDistributors[rewardToken][distributor]
}

// CheckNotify reports whether NotifyRewardAmount(from, rewardToken, amount)
// would pass its permission checks.
func (l *Locker) CheckNotify(from, rewardToken chain.Address, amount *big.Int) error {
	if !l.initialized {
		return ErrNotInitialized
	}
	if _, ok := l.rewardData[rewardToken]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReward, rewardToken.Hex())
	}
	if !l.rewardDistributors[rewardToken][from] {
		return fmt.Errorf("%w: %s", ErrNotDistributor, from.Hex())
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}

// NotifyRewardAmount pulls amount of rewardToken from the sender and
// streams it (plus any undistributed leftover) over RewardsDuration.
func (l *Locker) NotifyRewardAmount(from, rewardToken chain.Address, amount *big.Int) error {
	if err := l.CheckNotify(from, rewardToken, amount); err != nil {
		return err
	}
	rd := l.rewardData[rewardToken]
	if err := rd.token.TransferFrom(l.addr, from, l.addr, amount); err != nil {
		return fmt.Errorf("locker: notify: %w", err)
	}

	l.updateReward(chain.ZeroAddress)
	now := l.chain.Now()
	duration := new(big.Int).SetUint64(RewardsDuration)
	if now >= rd.periodFinish {
		rd.rewardRate = new(big.Int).Quo(amount, duration)
	} else {
		leftover := new(big.Int).Mul(new(big.Int).SetUint64(rd.periodFinish-now), rd.rewardRate)
		rd.rewardRate = leftover.Add(leftover, amount).Quo(leftover, duration)
	}
	rd.lastUpdateTime = now
	rd.periodFinish = now + RewardsDuration
	l.chain.Emit(l.addr, "RewardAdded", "token", rewardToken.Hex(), "reward", amount.String())
	return nil
}

// RewardTokens returns the registered reward tokens in registration order.
func (l *Locker) RewardTokens() []chain.Address {
	out := make([]chain.Address, len(l.rewardTokens))
	copy(out, l.rewardTokens)
	return out
}

// LastTimeRewardApplicable returns min(now, periodFinish) for rewardToken.
func (l *Locker) LastTimeRewardApplicable(rewardToken chain.Address) uint64 {
	rd, ok := l.rewardData[rewardToken]
	if !ok {
		return 0
	}
	return l.lastTimeApplicable(rd)
}

func (l *Locker) lastTimeApplicable(rd *rewardState) uint64 {
	if now := l.chain.Now(); now < rd.periodFinish {
		return now
	}
	return rd.periodFinish
}

// RewardPerToken returns the accumulated reward per boosted token (1e18 scale).
func (l *Locker) RewardPerToken(rewardToken chain.Address) *big.Int {
	rd, ok := l.rewardData[rewardToken]
	if !ok {
		return new(big.Int)
	}
	return l.rewardPerToken(rd)
}

func (l *Locker) rewardPerToken(rd *rewardState) *big.Int {
	rpt := chain.Clone(rd.rewardPerTokenStored)
	if l.boostedSupply.Sign() == 0 {
		return rpt
	}
	last := l.lastTimeApplicable(rd)
	if last <= rd.lastUpdateTime {
		return rpt
	}
	delta := new(big.Int).SetUint64(last - rd.lastUpdateTime)
	delta.Mul(delta, rd.rewardRate).Mul(delta, chain.WeiPerEther).Quo(delta, l.boostedSupply)
	return rpt.Add(rpt, delta)
}

// GetRewardForDuration returns rewardRate * RewardsDuration.
func (l *Locker) GetRewardForDuration(rewardToken chain.Address) *big.Int {
	rd, ok := l.rewardData[rewardToken]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Mul(rd.rewardRate, new(big.Int).SetUint64(RewardsDuration))
}

func (l *Locker) earned(account chain.Address, tokenAddr chain.Address, rd *rewardState, boosted *big.Int) *big.Int {
	paid := chain.Clone(l.userRewardPaid[account][tokenAddr])
	e := new(big.Int).Sub(l.rewardPerToken(rd), paid)
	e.Mul(e, boosted).Quo(e, chain.WeiPerEther)
	return e.Add(e, chain.Clone(l.rewards[account][tokenAddr]))
}

// ClaimableRewards returns, per reward token, what account can claim now.
func (l *Locker) ClaimableRewards(account chain.Address) []EarnedData {
	boosted := new(big.Int)
	if b, ok := l.balances[account]; ok {
		boosted = b.boosted
	}
	out := make([]EarnedData, 0, len(l.rewardTokens))
	for _, t := range l.rewardTokens {
		out = append(out, EarnedData{Token: t, Amount: l.earned(account, t, l.rewardData[t], boosted)})
	}
	return out
}

// updateReward checkpoints every reward stream and, for a non-zero
// account, that account's earnings.
func (l *Locker) updateReward(account chain.Address) {
	var boosted *big.Int
	if !account.IsZero() {
		boosted = l.balanceOf(account).boosted
	}
	for _, t := range l.rewardTokens {
		rd := l.rewardData[t]
		rd.rewardPerTokenStored = l.rewardPerToken(rd)
		rd.lastUpdateTime = l.lastTimeApplicable(rd)
		if account.IsZero() {
			continue
		}
		e := l.earned(account, t, rd, boosted)
		setNested(l.rewards, account, t, e)
		setNested(l.userRewardPaid, account, t, chain.Clone(rd.rewardPerTokenStored))
	}
}

func setNested(m map[chain.Address]map[chain.Address]*big.Int, a, b chain.Address, v *big.Int) {
	inner, ok := m[a]
	if !ok {
		inner = make(map[chain.Address]*big.Int)
		m[a] = inner
	}
	inner[b] = v
}

// GetReward pays account everything it has earned. stake is accepted for
// call compatibility and ignored.
func (l *Locker) GetReward(from, account chain.Address, stake bool) error {
	if !l.initialized {
		return ErrNotInitialized
	}
	if account.IsZero() {
		return fmt.Errorf("%w: account", ErrZeroAddress)
	}
	l.updateReward(account)
	for _, t := range l.rewardTokens {
		r := l.rewards[account][t]
		if r == nil || r.Sign() == 0 {
			continue
		}
		if err := l.rewardData[t].token.Transfer(l.addr, account, r); err != nil {
			return fmt.Errorf("locker: pay reward: %w", err)
		}
		l.chain.Emit(l.addr, "RewardPaid", "user", account.Hex(), "rewardsToken", t.Hex(), "reward", r.String())
		l.rewards[account][t] = new(big.Int)
	}
	return nil
}

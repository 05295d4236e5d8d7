package locker

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("locker: already initialized")

	// ErrNotInitialized indicates the locker was used before Initialize.
	ErrNotInitialized = errors.New("locker: not initialized")

	// ErrNotOwner indicates an owner-only call from another account.
	ErrNotOwner = errors.New("locker: caller is not the owner")

	// ErrZeroAddress indicates the zero address was supplied.
	ErrZeroAddress = errors.New("locker: zero address")

	// ErrZeroAmount indicates a zero or negative amount.
	ErrZeroAmount = errors.New("locker: amount must be positive")

	// ErrShutdown indicates a lock attempt after Shutdown.
	ErrShutdown = errors.New("locker: shutdown")

	// ErrSpendRatio indicates a spend ratio above the maximum boost payment.
	ErrSpendRatio = errors.New("locker: spend ratio over max boost payment")

	// ErrRewardExists indicates AddReward for an already registered token.
	ErrRewardExists = errors.New("locker: reward token already added")

	// ErrUnknownReward indicates a token that was never added as a reward.
	ErrUnknownReward = errors.New("locker: unknown reward token")

	// ErrNotDistributor indicates NotifyRewardAmount from an unapproved account.
	ErrNotDistributor = errors.New("locker: caller is not a reward distributor")

	// ErrNoExpiredLocks indicates there was nothing to process.
	ErrNoExpiredLocks = errors.New("locker: no expired locks")

	// ErrInvalidParam indicates an out-of-range owner setting.
	ErrInvalidParam = errors.New("locker: invalid parameter")

	// ErrProtectedToken indicates RecoverERC20 of the staking or a reward token.
	ErrProtectedToken = errors.New("locker: cannot recover staking or reward token")
)

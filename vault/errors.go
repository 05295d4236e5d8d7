package vault

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("vault: already initialized")

	// ErrNotInitialized indicates the vault was used before Initialize.
	ErrNotInitialized = errors.New("vault: not initialized")

	// ErrUnauthorized indicates the sender lacks the permission the call needs.
	ErrUnauthorized = errors.New("vault: unauthorized")

	// ErrZeroAddress indicates the zero address was supplied.
	ErrZeroAddress = errors.New("vault: zero address")

	// ErrZeroAmount indicates a zero or negative amount.
	ErrZeroAmount = errors.New("vault: amount must be positive")

	// ErrFeeTooHigh indicates a fee above its hard cap.
	ErrFeeTooHigh = errors.New("vault: fee exceeds cap")

	// ErrInvalidBps indicates a basis-point value above 10000.
	ErrInvalidBps = errors.New("vault: bps exceeds 10000")

	// ErrPaused indicates the vault is paused.
	ErrPaused = errors.New("vault: paused")

	// ErrNotPaused indicates Unpause on an unpaused vault.
	ErrNotPaused = errors.New("vault: not paused")

	// ErrDepositsPaused indicates deposits are paused.
	ErrDepositsPaused = errors.New("vault: deposits paused")

	// ErrNoStrategy indicates an operation that needs a strategy ran without one.
	ErrNoStrategy = errors.New("vault: no strategy")

	// ErrStrategyMismatch indicates a strategy for another vault or want token.
	ErrStrategyMismatch = errors.New("vault: strategy mismatch")

	// ErrStrategyNotEmpty indicates replacing a strategy that still holds funds.
	ErrStrategyNotEmpty = errors.New("vault: strategy still holds funds")

	// ErrInsufficientShares indicates a withdrawal above the sender's shares.
	ErrInsufficientShares = errors.New("vault: insufficient shares")

	// ErrProtectedToken indicates an operation on the vault's own want token.
	ErrProtectedToken = errors.New("vault: protected token")

	// ErrHarvestTooLarge indicates a reported harvest above the vault balance.
	ErrHarvestTooLarge = errors.New("vault: harvest exceeds balance")
)

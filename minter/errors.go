package minter

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("minter: already initialized")

	// ErrNotInitialized indicates the minter was used before Initialize.
	ErrNotInitialized = errors.New("minter: not initialized")

	// ErrUnauthorized indicates the sender lacks the role the call needs.
	ErrUnauthorized = errors.New("minter: unauthorized")

	// ErrPaused indicates the access-control registry is paused.
	ErrPaused = errors.New("minter: paused")

	// ErrZeroAddress indicates the zero address was supplied.
	ErrZeroAddress = errors.New("minter: zero address")

	// ErrNothingToMint indicates all three amounts were zero.
	ErrNothingToMint = errors.New("minter: nothing to mint")

	// ErrNegativeAmount indicates a nil or negative amount.
	ErrNegativeAmount = errors.New("minter: negative amount")

	// ErrNotMinter indicates the minter contract lacks CITADEL_MINTER_ROLE.
	ErrNotMinter = errors.New("minter: contract is not a citadel minter")

	// ErrInvalidPolicy indicates a split whose basis points do not sum to 10000.
	ErrInvalidPolicy = errors.New("minter: policy bps must sum to 10000")

	// ErrZeroShares indicates the locking amount would buy no vault shares
	// at the price per share the earlier buckets leave behind.
	ErrZeroShares = errors.New("minter: locking amount buys zero shares")

	// ErrVaultPaused indicates the vault refuses deposits.
	ErrVaultPaused = errors.New("minter: vault deposits paused")
)

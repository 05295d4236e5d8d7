package vesting

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("vesting: already initialized")

	// ErrNotInitialized indicates the holder was used before Initialize.
	ErrNotInitialized = errors.New("vesting: not initialized")

	// ErrNotOwner indicates an owner-only call from another account.
	ErrNotOwner = errors.New("vesting: caller is not the owner")

	// ErrNotVault indicates SetupVesting was called by someone other than the vault.
	ErrNotVault = errors.New("vesting: caller is not the vault")

	// ErrVaultAlreadySet indicates SetVault was called after a vault was bound.
	ErrVaultAlreadySet = errors.New("vesting: vault already set")

	// ErrZeroAddress indicates the zero address was supplied.
	ErrZeroAddress = errors.New("vesting: zero address")

	// ErrZeroAmount indicates a zero or negative amount.
	ErrZeroAmount = errors.New("vesting: amount must be positive")

	// ErrZeroDuration indicates a zero vesting duration.
	ErrZeroDuration = errors.New("vesting: duration must be positive")

	// ErrNothingToClaim indicates the sender has no claimable balance.
	ErrNothingToClaim = errors.New("vesting: nothing to claim")
)

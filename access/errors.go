package access

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("access: already initialized")

	// ErrNotInitialized indicates the registry was used before Initialize.
	ErrNotInitialized = errors.New("access: not initialized")

	// ErrMissingRole indicates the sender lacks the role required by the call.
	ErrMissingRole = errors.New("access: account is missing role")

	// ErrRenounceForOther indicates an account tried to renounce another's role.
	ErrRenounceForOther = errors.New("access: can only renounce roles for self")

	// ErrZeroAddress indicates the zero address was supplied where an account is required.
	ErrZeroAddress = errors.New("access: zero address")

	// ErrPaused indicates the registry is globally paused.
	ErrPaused = errors.New("access: paused")

	// ErrNotPaused indicates Unpause was called on an unpaused registry.
	ErrNotPaused = errors.New("access: not paused")

	// ErrMemberIndex indicates a role member index is out of range.
	ErrMemberIndex = errors.New("access: role member index out of range")
)

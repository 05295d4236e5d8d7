package token

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("token: already initialized")

	// ErrNotInitialized indicates the token was used before Initialize.
	ErrNotInitialized = errors.New("token: not initialized")

	// ErrInsufficientBalance indicates a transfer or burn exceeds the balance.
	ErrInsufficientBalance = errors.New("token: transfer amount exceeds balance")

	// ErrInsufficientAllowance indicates transferFrom exceeds the allowance.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrZeroAddress indicates a transfer, mint or approval involving the zero address.
	ErrZeroAddress = errors.New("token: zero address")

	// ErrNegativeAmount indicates a nil or negative amount.
	ErrNegativeAmount = errors.New("token: negative or nil amount")

	// ErrNotMinter indicates the sender lacks CITADEL_MINTER_ROLE.
	ErrNotMinter = errors.New("token: sender is not a minter")

	// ErrPaused indicates the access-control registry is paused.
	ErrPaused = errors.New("token: global pause")
)

package sale

import "errors"

var (
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("sale: already initialized")

	// ErrNotInitialized indicates the sale was used before Initialize.
	ErrNotInitialized = errors.New("sale: not initialized")

	// ErrNotOwner indicates an owner-only call from another sender.
	ErrNotOwner = errors.New("sale: caller is not the owner")

	// ErrZeroAddress indicates a required address or token is unset.
	ErrZeroAddress = errors.New("sale: zero address")

	// ErrInvalidParam indicates a zero duration, price or cap, or a start in the past.
	ErrInvalidParam = errors.New("sale: invalid parameter")

	// ErrZeroAmount indicates a purchase of nothing.
	ErrZeroAmount = errors.New("sale: amount must be positive")

	// ErrNotStarted indicates a purchase before the sale start.
	ErrNotStarted = errors.New("sale: not started")

	// ErrEnded indicates a purchase after the sale window.
	ErrEnded = errors.New("sale: ended")

	// ErrNotEnded indicates Finalize before the sale window closed.
	ErrNotEnded = errors.New("sale: not ended")

	// ErrCapExceeded indicates a purchase would exceed the tokenIn limit.
	ErrCapExceeded = errors.New("sale: tokenIn limit exceeded")

	// ErrNotGuest indicates a missing or invalid guestlist proof.
	ErrNotGuest = errors.New("sale: not on guestlist")

	// ErrDaoMismatch indicates a buyer committing to a second DAO.
	ErrDaoMismatch = errors.New("sale: buyer already committed to another dao")

	// ErrPaused indicates the sale is paused.
	ErrPaused = errors.New("sale: paused")

	// ErrNotPaused indicates Unpause on a running sale.
	ErrNotPaused = errors.New("sale: not paused")

	// ErrFinalized indicates a purchase or setter after Finalize.
	ErrFinalized = errors.New("sale: already finalized")

	// ErrNotFinalized indicates Claim or a tokenOut sweep before Finalize.
	ErrNotFinalized = errors.New("sale: not finalized")

	// ErrInsufficientOut indicates the sale holds less tokenOut than was bought.
	ErrInsufficientOut = errors.New("sale: not enough tokenOut to cover purchases")

	// ErrNothingToClaim indicates a claim with no purchase.
	ErrNothingToClaim = errors.New("sale: nothing to claim")

	// ErrAlreadyClaimed indicates a second claim.
	ErrAlreadyClaimed = errors.New("sale: already claimed")

	// ErrNothingToSweep indicates a sweep with no surplus balance.
	ErrNothingToSweep = errors.New("sale: nothing to sweep")

	// ErrEmptyGuestlist indicates BuildGuestlist was given no addresses.
	ErrEmptyGuestlist = errors.New("sale: empty guestlist")
)

package chain

import "errors"

var (
	// ErrInvalidAddress indicates a hex address string is malformed.
	ErrInvalidAddress = errors.New("chain: invalid address")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("chain: required parameter is nil")

	// ErrReceiptNotFound indicates no receipt is stored under the hash.
	ErrReceiptNotFound = errors.New("chain: receipt not found")

	// ErrDuplicateReceipt indicates a receipt with this hash already exists.
	ErrDuplicateReceipt = errors.New("chain: duplicate receipt")

	// ErrDeploymentNotFound indicates no deployment is stored under the name.
	ErrDeploymentNotFound = errors.New("chain: deployment not found")

	// ErrInvalidAmount indicates a decimal amount string cannot be parsed.
	ErrInvalidAmount = errors.New("chain: invalid amount")
)

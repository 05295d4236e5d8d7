package flow

import "errors"

var (
	// ErrOracle indicates a flow post-condition did not hold.
	ErrOracle = errors.New("flow: oracle failed")

	// ErrUnknownFlow indicates a flow name that is not registered.
	ErrUnknownFlow = errors.New("flow: unknown flow")

	// ErrStep indicates a flow transaction reverted.
	ErrStep = errors.New("flow: step failed")
)

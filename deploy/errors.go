package deploy

import "errors"

var (
	// ErrLocked indicates another process holds the data directory lock.
	ErrLocked = errors.New("deploy: data directory is locked")

	// ErrMissingActor indicates an actor address is unset.
	ErrMissingActor = errors.New("deploy: missing actor")

	// ErrTooFewAccounts indicates TestActors got fewer accounts than roles.
	ErrTooFewAccounts = errors.New("deploy: too few accounts")

	// ErrInvalidParams indicates deployment parameters fail validation.
	ErrInvalidParams = errors.New("deploy: invalid parameters")

	// ErrStep indicates a deployment step reverted.
	ErrStep = errors.New("deploy: step failed")

	// ErrUnknownContract indicates a lookup for a contract that was not deployed.
	ErrUnknownContract = errors.New("deploy: unknown contract")

	// ErrManifestNotFound indicates no manifest exists at the given path.
	ErrManifestNotFound = errors.New("deploy: manifest not found")
)

// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"development\", \"testnet\", or \"mainnet\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidConfigValue indicates a numeric key holds a non-numeric value.
	ErrInvalidConfigValue = errors.New("config: invalid configuration value")

	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("config: invalid mnemonic")

	// ErrTooFewAccounts indicates fewer accounts than the deployment actors need.
	ErrTooFewAccounts = errors.New("config: too few accounts")

	// ErrZeroDuration indicates a vesting or sale duration of zero.
	ErrZeroDuration = errors.New("config: duration must be positive")

	// ErrInvalidAmount indicates the sale price or cap is not a positive decimal.
	ErrInvalidAmount = errors.New("config: invalid amount")

	// ErrEnv indicates an environment override could not be applied.
	ErrEnv = errors.New("config: invalid environment override")
)

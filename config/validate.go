// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/wallet"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if _, err := wallet.GetNetwork(cfg.Network); err != nil {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if !wallet.ValidateMnemonic(cfg.Mnemonic) {
		return ErrInvalidMnemonic
	}

	if cfg.Accounts < MinAccounts {
		return fmt.Errorf("%w: %d < %d", ErrTooFewAccounts, cfg.Accounts, MinAccounts)
	}

	if cfg.VestingDuration == 0 || cfg.SaleDuration == 0 {
		return ErrZeroDuration
	}

	if err := validateAmount("saleprice", cfg.SalePrice); err != nil {
		return err
	}
	if err := validateAmount("salecap", cfg.SaleCap); err != nil {
		return err
	}

	return nil
}

// validateAmount checks that v is a positive decimal token amount.
func validateAmount(key, v string) error {
	amt, err := chain.ParseEther(v)
	if err != nil || amt.Sign() <= 0 {
		return fmt.Errorf("%w: %s = %q", ErrInvalidAmount, key, v)
	}
	return nil
}

// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the citadel CLI configuration.
//
// The file format is one "key = value" pair per line; "#" starts a comment
// line and blank lines are skipped. Unknown keys are ignored so newer files
// still load. Environment variables prefixed CITADEL_ override file values.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/citadelfi/libcitadel-go/wallet"
)

// EnvPrefix prefixes every environment override, e.g. CITADEL_NETWORK.
const EnvPrefix = "CITADEL"

// MinAccounts is the fewest derived accounts a deployment can run with.
const MinAccounts = 4

// Config holds the CLI configuration.
type Config struct {
	DataDir  string `envconfig:"DATA_DIR"`
	Network  string `envconfig:"NETWORK"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`

	Mnemonic string `envconfig:"MNEMONIC"`
	Accounts int    `envconfig:"ACCOUNTS"`

	// GenesisTime is the simulated chain start; 0 means wall-clock now.
	GenesisTime uint64 `envconfig:"GENESIS_TIME"`

	VestingDuration uint64 `envconfig:"VESTING_DURATION"`

	SaleStartDelay uint64 `envconfig:"SALE_START_DELAY"`
	SaleDuration   uint64 `envconfig:"SALE_DURATION"`
	SalePrice      string `envconfig:"SALE_PRICE"`
	SaleCap        string `envconfig:"SALE_CAP"`
}

// DefaultConfig returns the development configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Network:         "development",
		LogLevel:        "info",
		Mnemonic:        wallet.DevMnemonic,
		Accounts:        10,
		VestingDuration: 21 * 86400,
		SaleStartDelay:  10,
		SaleDuration:    86400,
		SalePrice:       "32",
		SaleCap:         "1000000",
	}
}

// DefaultDataDir returns $HOME/.citadel, or .citadel when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".citadel"
	}
	return filepath.Join(home, ".citadel")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), "config")
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", err, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d", err, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	case "mnemonic":
		c.Mnemonic = value
	case "accounts":
		c.Accounts, err = strconv.Atoi(value)
	case "genesistime":
		c.GenesisTime, err = strconv.ParseUint(value, 10, 64)
	case "vestingduration":
		c.VestingDuration, err = strconv.ParseUint(value, 10, 64)
	case "salestartdelay":
		c.SaleStartDelay, err = strconv.ParseUint(value, 10, 64)
	case "saleduration":
		c.SaleDuration, err = strconv.ParseUint(value, 10, 64)
	case "saleprice":
		c.SalePrice = value
	case "salecap":
		c.SaleCap = value
	}
	if err != nil {
		return fmt.Errorf("%w: %s = %q", ErrInvalidConfigValue, key, value)
	}
	return nil
}

// SaveConfig writes cfg to path (0600), creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Citadel Configuration\n")
	b.WriteString("# Environment variables prefixed " + EnvPrefix + "_ override these values.\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	b.WriteString("\n# Accounts are derived at m/44'/60'/0'/0/i.\n")
	fmt.Fprintf(&b, "mnemonic = %s\n", cfg.Mnemonic)
	fmt.Fprintf(&b, "accounts = %d\n", cfg.Accounts)
	b.WriteString("\n# Simulated chain and deployment parameters (seconds, whole tokens).\n")
	fmt.Fprintf(&b, "genesistime = %d\n", cfg.GenesisTime)
	fmt.Fprintf(&b, "vestingduration = %d\n", cfg.VestingDuration)
	fmt.Fprintf(&b, "salestartdelay = %d\n", cfg.SaleStartDelay)
	fmt.Fprintf(&b, "saleduration = %d\n", cfg.SaleDuration)
	fmt.Fprintf(&b, "saleprice = %s\n", cfg.SalePrice)
	fmt.Fprintf(&b, "salecap = %s\n", cfg.SaleCap)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any CITADEL_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrEnv, err)
	}
	return nil
}

// Load reads the config under dataDir, falling back to defaults when the
// file is missing, then applies environment overrides.
func Load(dataDir string) (Config, error) {
	cfg, err := LoadConfig(ConfigPath(dataDir))
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return cfg, err
	}
	if err != nil {
		cfg.DataDir = dataDir
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

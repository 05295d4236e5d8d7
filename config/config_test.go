// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "development"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"Accounts", cfg.Accounts, 10},
		{"VestingDuration", cfg.VestingDuration, uint64(21 * 86400)},
		{"SaleDuration", cfg.SaleDuration, uint64(86400)},
		{"SalePrice", cfg.SalePrice, "32"},
		{"SaleCap", cfg.SaleCap, "1000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	// DataDir should end with .citadel (we don't assert the full path
	// since it depends on the home directory).
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:         "/tmp/test-citadel",
		Network:         "testnet",
		LogLevel:        "debug",
		LogFile:         "/tmp/citadel.log",
		Mnemonic:        "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		Accounts:        6,
		GenesisTime:     1700000000,
		VestingDuration: 3600,
		SaleStartDelay:  60,
		SaleDuration:    7200,
		SalePrice:       "1.5",
		SaleCap:         "500",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"DataDir", loaded.DataDir, original.DataDir},
		{"Network", loaded.Network, original.Network},
		{"LogLevel", loaded.LogLevel, original.LogLevel},
		{"LogFile", loaded.LogFile, original.LogFile},
		{"Mnemonic", loaded.Mnemonic, original.Mnemonic},
		{"Accounts", loaded.Accounts, original.Accounts},
		{"GenesisTime", loaded.GenesisTime, original.GenesisTime},
		{"VestingDuration", loaded.VestingDuration, original.VestingDuration},
		{"SaleStartDelay", loaded.SaleStartDelay, original.SaleStartDelay},
		{"SaleDuration", loaded.SaleDuration, original.SaleDuration},
		{"SalePrice", loaded.SalePrice, original.SalePrice},
		{"SaleCap", loaded.SaleCap, original.SaleCap},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig parser tests
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(Config) string
	}{
		{
			name:    "comments_and_blanks",
			content: "# header\nnetwork = testnet\n\n# more\nloglevel = debug\n",
			check: func(c Config) string {
				if c.Network != "testnet" || c.LogLevel != "debug" {
					return "network/loglevel not read: " + c.Network + "/" + c.LogLevel
				}
				if c.Accounts != 10 {
					return "unset accounts lost its default"
				}
				return ""
			},
		},
		{
			name:    "unknown_key",
			content: "futurekey = futurevalue\nnetwork = testnet\n",
			check:   func(c Config) string { return expect("Network", c.Network, "testnet") },
		},
		{
			name:    "empty_value",
			content: "network=\n",
			check:   func(c Config) string { return expect("Network", c.Network, "") },
		},
		{
			name:    "split_on_first_equals",
			content: "logfile=/tmp/a=b.log\n",
			check:   func(c Config) string { return expect("LogFile", c.LogFile, "/tmp/a=b.log") },
		},
		{
			name:    "surrounding_whitespace",
			content: "  network = testnet  \n",
			check:   func(c Config) string { return expect("Network", c.Network, "testnet") },
		},
		{
			name:    "numbers",
			content: "accounts = 7\ngenesistime = 1700000000\nsaleduration=60\n",
			check: func(c Config) string {
				if c.Accounts != 7 || c.GenesisTime != 1700000000 || c.SaleDuration != 60 {
					return "numeric keys not parsed"
				}
				return ""
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tc.content))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if msg := tc.check(cfg); msg != "" {
				t.Error(msg)
			}
		})
	}
}

func expect(field, got, want string) string {
	if got == want {
		return ""
	}
	return fmt.Sprintf("%s = %q, want %q", field, got, want)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"no_equals", "this-is-not-key-value\n", ErrInvalidConfigLine},
		{"bad_number", "accounts = many\n", ErrInvalidConfigValue},
		{"negative_time", "genesistime = -1\n", ErrInvalidConfigValue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("LoadConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := LoadConfig("/nonexistent/path/config"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("file modes not enforced")
	}
	path := writeConfig(t, "network=testnet\n")
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil || errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig unreadable: got %v, want a read error", err)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_network",
			modify:  func(c *Config) { c.Network = "devnet" },
			wantErr: ErrInvalidNetwork,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad_mnemonic",
			modify:  func(c *Config) { c.Mnemonic = "not a mnemonic" },
			wantErr: ErrInvalidMnemonic,
		},
		{
			name:    "too_few_accounts",
			modify:  func(c *Config) { c.Accounts = MinAccounts - 1 },
			wantErr: ErrTooFewAccounts,
		},
		{
			name:    "zero_vesting_duration",
			modify:  func(c *Config) { c.VestingDuration = 0 },
			wantErr: ErrZeroDuration,
		},
		{
			name:    "zero_sale_duration",
			modify:  func(c *Config) { c.SaleDuration = 0 },
			wantErr: ErrZeroDuration,
		},
		{
			name:    "bad_sale_price",
			modify:  func(c *Config) { c.SalePrice = "thirty" },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero_sale_cap",
			modify:  func(c *Config) { c.SaleCap = "0" },
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"testnet", func(c *Config) { c.Network = "testnet" }},
		{"mainnet", func(c *Config) { c.Network = "mainnet" }},
		{"warn", func(c *Config) { c.LogLevel = "warn" }},
		{"upper_case_level", func(c *Config) { c.LogLevel = "ERROR" }},
		{"mixed_case_level", func(c *Config) { c.LogLevel = "dEbUg" }},
		{"min_accounts", func(c *Config) { c.Accounts = MinAccounts }},
		{"fractional_price", func(c *Config) { c.SalePrice = "0.25" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ConfigPath tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.citadel")
	want := filepath.Join("/home/user/.citadel", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// DefaultDataDir / SaveConfig format
// ---------------------------------------------------------------------------

func TestDefaultDataDir(t *testing.T) {
	if dir := DefaultDataDir(); !strings.HasSuffix(dir, ".citadel") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".citadel")
	}
	if got, want := ConfigPath("/foo/"), filepath.Join("/foo", "config"); got != want {
		t.Errorf("ConfigPath(%q) = %q, want %q", "/foo/", got, want)
	}
}

func TestSaveConfigFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	cfg.LogFile = "/var/log/citadel.log"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Citadel Configuration") {
		t.Error("saved config should start with the header comment")
	}
	for _, key := range []string{
		"datadir", "network", "loglevel", "logfile", "mnemonic", "accounts", "genesistime",
		"vestingduration", "salestartdelay", "saleduration", "saleprice", "salecap",
	} {
		if !strings.Contains(content, "\n"+key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// Numeric values and environment overrides
// ---------------------------------------------------------------------------

func TestApplyEnv(t *testing.T) {
	t.Setenv("CITADEL_NETWORK", "testnet")
	t.Setenv("CITADEL_ACCOUNTS", "12")
	t.Setenv("CITADEL_SALE_CAP", "42")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
	if cfg.Accounts != 12 {
		t.Errorf("Accounts = %d, want 12", cfg.Accounts)
	}
	if cfg.SaleCap != "42" {
		t.Errorf("SaleCap = %q, want %q", cfg.SaleCap, "42")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, unset variables must keep the file value", cfg.LogLevel)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("CITADEL_ACCOUNTS", "lots")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); !errors.Is(err, ErrEnv) {
		t.Errorf("ApplyEnv: got %v, want ErrEnv", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CITADEL_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override %q", cfg.LogLevel, "debug")
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.SaleDuration = 99
	if err := SaveConfig(ConfigPath(dir), cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SaleDuration != 99 {
		t.Errorf("SaleDuration = %d, want 99", loaded.SaleDuration)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citadelfi/libcitadel-go/config"
	"github.com/citadelfi/libcitadel-go/wallet"
)

var (
	forceInit   bool
	newMnemonic bool
)

// configCmd manages the configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the citadel configuration",
}

// configInitCmd writes a default configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration to <data-dir>/config",
	Long: `Writes the development configuration to <data-dir>/config. With
--new-mnemonic a fresh 24-word mnemonic replaces the development one. With
--password the seed is also encrypted to <data-dir>/keystore.`,
	RunE: runConfigInit,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file + environment)",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing configuration")
	configInitCmd.Flags().BoolVar(&newMnemonic, "new-mnemonic", false, "Generate a new mnemonic instead of the development one")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := resolveDataDir()
	path := config.ConfigPath(dir)
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	if newMnemonic {
		m, err := wallet.GenerateMnemonic(wallet.Mnemonic24Words)
		if err != nil {
			return err
		}
		cfg.Mnemonic = m
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}
	logger.Info("config written", zap.String("path", path))

	if password != "" {
		seed, err := wallet.SeedFromMnemonic(cfg.Mnemonic, "")
		if err != nil {
			return err
		}
		ks := filepath.Join(dir, keystoreFileName)
		if err := wallet.SaveKeystore(ks, seed, password); err != nil {
			return err
		}
		logger.Info("keystore written", zap.String("path", ks))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir := resolveDataDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	source := config.ConfigPath(dir)
	if _, err := os.Stat(source); errors.Is(err, os.ErrNotExist) {
		source = "defaults"
	}

	mnemonic := cfg.Mnemonic
	if mnemonic != wallet.DevMnemonic {
		mnemonic = "<redacted>"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# source: %s\n", source)
	fmt.Fprintf(out, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(out, "network = %s\n", cfg.Network)
	fmt.Fprintf(out, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(out, "mnemonic = %s\n", mnemonic)
	fmt.Fprintf(out, "accounts = %d\n", cfg.Accounts)
	fmt.Fprintf(out, "genesistime = %d\n", cfg.GenesisTime)
	fmt.Fprintf(out, "vestingduration = %d\n", cfg.VestingDuration)
	fmt.Fprintf(out, "salestartdelay = %d\n", cfg.SaleStartDelay)
	fmt.Fprintf(out, "saleduration = %d\n", cfg.SaleDuration)
	fmt.Fprintf(out, "saleprice = %s\n", cfg.SalePrice)
	fmt.Fprintf(out, "salecap = %s\n", cfg.SaleCap)

	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(out, "# invalid: %v\n", err)
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/config"
	"github.com/citadelfi/libcitadel-go/deploy"
	"github.com/citadelfi/libcitadel-go/wallet"
)

const (
	keystoreFileName = "keystore"
	chainDBFileName  = "chain.db"
)

// resolveDataDir returns --data-dir or the default data directory.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	return config.DefaultDataDir()
}

// loadConfig loads and validates the effective configuration and applies
// its log settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(resolveDataDir())
	if err != nil {
		return cfg, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	if !verbose {
		if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return cfg, fmt.Errorf("%w: %s", config.ErrInvalidLogLevel, cfg.LogLevel)
		}
	}
	if cfg.LogFile != "" {
		l, err := buildLogger(cfg.LogFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to open log file: %w", err)
		}
		if logger != nil {
			_ = logger.Sync()
		}
		logger = l
	}
	return cfg, nil
}

// loadWallet opens the HD wallet from the keystore when --password is set,
// otherwise from the configured mnemonic.
func loadWallet(cfg config.Config) (*wallet.Wallet, error) {
	net, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	if password != "" {
		seed, err := wallet.LoadKeystore(filepath.Join(cfg.DataDir, keystoreFileName), password)
		if err != nil {
			return nil, err
		}
		return wallet.NewWallet(seed, net)
	}
	return wallet.FromMnemonic(cfg.Mnemonic, "", net)
}

// loadActors derives the configured accounts and maps them onto actors.
func loadActors(cfg config.Config, single bool) (deploy.Actors, []chain.Address, error) {
	w, err := loadWallet(cfg)
	if err != nil {
		return deploy.Actors{}, nil, err
	}
	addrs, err := w.Addresses(cfg.Accounts)
	if err != nil {
		return deploy.Actors{}, nil, err
	}
	if single {
		return deploy.SingleActor(addrs[0]), addrs, nil
	}
	actors, err := deploy.TestActors(addrs)
	return actors, addrs, err
}

// newChain builds a simulated chain for cfg, persisting to store when set.
func newChain(cfg config.Config, store chain.Store) (*chain.Chain, error) {
	net, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	opts := []chain.Option{chain.WithChainID(net.ChainID), chain.WithLogger(logger)}
	if cfg.GenesisTime != 0 {
		opts = append(opts, chain.WithGenesisTime(cfg.GenesisTime))
	}
	if store != nil {
		opts = append(opts, chain.WithStore(store))
	}
	return chain.New(opts...), nil
}

// deployParams applies the configured overrides to the default deployment.
func deployParams(cfg config.Config) (deploy.Params, error) {
	p := deploy.DefaultParams()
	p.VestingDuration = cfg.VestingDuration
	price, err := chain.ParseEther(cfg.SalePrice)
	if err != nil {
		return p, fmt.Errorf("%w: saleprice: %w", config.ErrInvalidAmount, err)
	}
	saleCap, err := chain.ParseEther(cfg.SaleCap)
	if err != nil {
		return p, fmt.Errorf("%w: salecap: %w", config.ErrInvalidAmount, err)
	}
	p.Sale.StartDelay = cfg.SaleStartDelay
	p.Sale.Duration = cfg.SaleDuration
	p.Sale.Price = price
	p.Sale.Cap = saleCap
	return p, nil
}

func chainDBPath(dir string) string { return filepath.Join(dir, chainDBFileName) }

func manifestPath(dir string) string { return filepath.Join(dir, deploy.ManifestFileName) }

func logDeployed(sys *deploy.System) {
	logger.Info("system deployed",
		zap.Int("contracts", len(sys.Deployments)),
		zap.Uint64("block", sys.Chain.Height()),
	)
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

var singleActor bool

// deployCmd deploys the full system
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the Citadel system to a fresh simulated chain",
	Long: `Deploys and wires every contract in dependency order:
  1. Global access control (+ POLICY_OPERATIONS_ROLE to the policy operator)
  2. Citadel token
  3. Vesting holder
  4. xCitadel vault and its strategy
  5. veCitadel locker with CVX, ibBTC and xCTDL rewards
  6. Minter (+ CITADEL_MINTER_ROLE)
  7. Token sale paid in CVX

The previous chain database in the data directory is replaced. Receipts go
to <data-dir>/chain.db and addresses to <data-dir>/deployments.yaml.`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().BoolVar(&singleActor, "single-actor", false, "Use the first account for every role")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	actors, _, err := loadActors(cfg, singleActor)
	if err != nil {
		return err
	}
	params, err := deployParams(cfg)
	if err != nil {
		return err
	}

	lock, err := deploy.LockDataDir(cfg.DataDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	dbPath := chainDBPath(cfg.DataDir)
	if err := os.Remove(dbPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to reset chain database: %w", err)
	}
	store, err := chain.OpenBoltStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := newChain(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	sys, err := deploy.Deploy(ctx, c, actors, params, deploy.WithLogger(logger))
	if err != nil {
		return err
	}
	logDeployed(sys)

	m := deploy.NewManifest(sys, cfg.Network)
	if err := m.Save(manifestPath(cfg.DataDir)); err != nil {
		return err
	}
	logger.Info("manifest written", zap.String("path", manifestPath(cfg.DataDir)), zap.String("run_id", m.RunID))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Deployed %d contracts (run %s, chain %d, block %d)\n\n", len(sys.Deployments), m.RunID, m.ChainID, m.Block)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTRACT\tADDRESS\tBLOCK")
	for _, d := range sys.Deployments {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", d.Name, d.Address.Hex(), d.Block)
	}
	return tw.Flush()
}

// Command citadel deploys the Citadel system on a simulated chain, runs the
// integration flows against it and inspects what was recorded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose  bool
	dataDir  string
	password string
	timeout  time.Duration

	// Logger
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "citadel",
	Short: "Deploy and exercise the Citadel staking system",
	Long: `citadel stands up the Citadel contracts (access control, token, vesting,
xCitadel vault, locker, minter and token sale) on a deterministic simulated
chain, records every transaction in <data-dir>/chain.db and writes a
deployment manifest to <data-dir>/deployments.yaml.

Configuration is read from <data-dir>/config; CITADEL_* environment
variables override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		l, err := buildLogger("")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildLogger builds a production logger at logLevel, also writing to
// logFile when set.
func buildLogger(logFile string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = logLevel
	if logFile != "" {
		config.OutputPaths = append(config.OutputPaths, logFile)
	}
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: ~/.citadel)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Keystore password; derives accounts from <data-dir>/keystore instead of the mnemonic")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
}

// commandContext returns a context bounded by --timeout and cancelled on
// SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

var (
	showReceipts bool
	methodFilter string
	showEvents   bool
	contractName string
)

// inspectCmd shows what the last deploy recorded
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recorded deployments and transaction receipts",
	Long: `Reads <data-dir>/chain.db and <data-dir>/deployments.yaml and prints the
deployed contracts. With --receipts every stored transaction is listed in
block order; --method narrows the list and --events prints each receipt's
events. --contract prints only the named contract's address from the
manifest.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVarP(&showReceipts, "receipts", "r", false, "List transaction receipts")
	inspectCmd.Flags().StringVarP(&methodFilter, "method", "m", "", "Only list receipts whose method contains this text")
	inspectCmd.Flags().BoolVarP(&showEvents, "events", "e", false, "Print receipt events")
	inspectCmd.Flags().StringVarP(&contractName, "contract", "c", "", "Print the address of one deployed contract")
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir := resolveDataDir()
	if contractName != "" {
		m, err := deploy.LoadManifest(manifestPath(dir))
		if err != nil {
			return err
		}
		addr, err := m.Lookup(contractName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
		return nil
	}
	dbPath := chainDBPath(dir)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no chain database at %s (run `citadel deploy` first)", dbPath)
	}
	store, err := chain.OpenBoltStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if m, err := deploy.LoadManifest(manifestPath(dir)); err == nil {
		fmt.Fprintf(out, "Run %s on %s (chain %d) at block %d\n\n", m.RunID, m.Network, m.ChainID, m.Block)
	} else if !errors.Is(err, deploy.ErrManifestNotFound) {
		return err
	}

	deployments, err := store.ListDeployments()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTRACT\tADDRESS\tBLOCK\tTX")
	for _, d := range deployments {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.Name, d.Address.Hex(), d.Block, d.TxHash.Hex())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !showReceipts {
		return nil
	}

	receipts, err := store.ListReceipts()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BLOCK\tFROM\tTO\tMETHOD\tSTATUS\tEVENTS")
	n := 0
	for _, r := range receipts {
		if methodFilter != "" && !strings.Contains(r.Method, methodFilter) {
			continue
		}
		n++
		status := r.Status.String()
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", r.Block, r.From.Hex(), r.To.Hex(), r.Method, status, len(r.Events))
		if showEvents {
			for _, ev := range r.Events {
				fmt.Fprintf(tw, "\t\t\t  %s\t%s\t\n", ev.Name, formatArgs(ev.Args))
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d receipts\n", n, len(receipts))
	return nil
}

func formatArgs(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + args[k]
	}
	return strings.Join(parts, " ")
}

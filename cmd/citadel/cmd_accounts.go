package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/citadelfi/libcitadel-go/chain"
	"github.com/citadelfi/libcitadel-go/deploy"
)

var accountCount int

// accountsCmd lists derived accounts
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the derived accounts and the actor roles they fill",
	RunE:  runAccounts,
}

func init() {
	accountsCmd.Flags().IntVarP(&accountCount, "count", "n", 0, "Number of accounts to derive (default: config accounts)")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if accountCount > 0 {
		cfg.Accounts = accountCount
	}
	w, err := loadWallet(cfg)
	if err != nil {
		return err
	}
	accounts, err := w.Accounts(cfg.Accounts)
	if err != nil {
		return err
	}

	roles := make(map[chain.Address][]string)
	addrs := make([]chain.Address, len(accounts))
	for i, a := range accounts {
		addrs[i] = a.Address
	}
	if actors, err := deploy.TestActors(addrs); err == nil {
		for name, hex := range actors.Map() {
			addr := chain.MustAddress(hex)
			roles[addr] = append(roles[addr], name)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Network: %s\n\n", w.Network().Name)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tPATH\tADDRESS\tROLES")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", a.Index, a.Path, a.Address.Hex(), joinRoles(roles[a.Address]))
	}
	return tw.Flush()
}

func joinRoles(r []string) string {
	if len(r) == 0 {
		return "-"
	}
	sort.Strings(r)
	return strings.Join(r, ",")
}

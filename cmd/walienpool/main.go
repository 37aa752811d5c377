package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "walienpool",
		Short:        "WALIEN bonding-curve sale ledger",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("program-id", "", "sale program id (base58)")
	pf.String("store", "leveldb", "ledger store (memory, leveldb, postgres)")
	pf.String("leveldb-path", "./data/ledger", "LevelDB ledger directory")
	pf.String("pg-dsn", "", "Postgres DSN")
	pf.String("events-out", "./data/events.jsonl", "event log JSONL path (empty disables)")
	pf.Bool("log-events", true, "log every emitted event")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "optional rotating log file")

	root.AddCommand(
		newInitCmd(),
		newAdminCmd(),
		newQuoteCmd(),
		newBuyCmd(),
		newClaimCmd(),
		newWithdrawCmd(),
		newRollbackCmd(),
		newShowCmd(),
		newAuditCmd(),
		newDevCmd(),
		newServeCmd(),
		newReportCmd(),
	)
	return root
}

// Command lattice is a thin smoke-test harness over the engine (C14,
// spec.md §4.12): every subcommand's RunE delegates straight into
// internal/engine, with no business logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

var (
	flagConfigPath string
	flagDSN        string
	flagBackend    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lattice",
		Short:         "Lattice JSON document store — ingest, search, and rebuild indexes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "lattice.toml", "path to lattice.toml")
	root.PersistentFlags().StringVar(&flagDSN, "dsn", "", "override the configured backend DSN")
	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "override the configured backend (sqlite|mysql|dolt)")

	root.AddCommand(
		newCollectionCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newRebuildCmd(),
		newSchemaCmd(),
	)
	return root
}

// Package cli is fleetctl's command tree: a small read-only inspector
// over the persistence layer the daemon (cmd/fleetd) writes to.
// Grounded on the teacher's internal/adapters/cli package (one
// NewXCommand() factory per subcommand, assembled by NewRootCommand),
// trimmed from its Unix-socket daemon client down to a direct database
// connection since this core has no separate daemon process to dial.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/config"
)

var (
	configPath string
	callsign   string
)

// NewRootCommand builds fleetctl's command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fleetctl",
		Short: "fleetctl - inspect a running fleet orchestrator's persisted state",
		Long: `fleetctl reads the same database the fleetd daemon writes to and
reports on role assignments, era, in-progress tasks, and the credit
ledger's transaction history.

Examples:
  fleetctl ships
  fleetctl era
  fleetctl tasks X1-GZ7
  fleetctl ledger report
  fleetctl ledger list --category TRADING_REVENUE --limit 20`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to ./config.yaml or env)")
	rootCmd.PersistentFlags().StringVar(&callsign, "callsign", "", "agent callsign (defaults to AGENT_CALLSIGN)")

	rootCmd.AddCommand(NewShipsCommand())
	rootCmd.AddCommand(NewEraCommand())
	rootCmd.AddCommand(NewTasksCommand())
	rootCmd.AddCommand(NewLedgerCommand())

	return rootCmd
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore loads configuration, opens the database, and resolves the
// callsign to key state under, the shared bootstrap every subcommand
// needs before it can read anything.
func openStore() (*gorm.DB, *persistence.KVStore, string, error) {
	cfg := config.LoadConfigOrDefault(configPath)

	cs := callsign
	if cs == "" {
		cs = cfg.Agent.Callsign
	}
	if cs == "" {
		return nil, nil, "", fmt.Errorf("no callsign configured: pass --callsign or set AGENT_CALLSIGN")
	}

	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, persistence.NewKVStore(db), cs, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
)

type agentStateSnapshot struct {
	Era string `json:"era"`
}

// NewEraCommand prints the fleet's persisted era (spec.md §4.1's era
// machine state).
func NewEraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "era",
		Short: "Show the fleet's current developmental era",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, kv, cs, err := openStore()
			if err != nil {
				return err
			}

			var snap agentStateSnapshot
			if err := kv.Get(context.Background(), cs+"/state", &snap); err != nil {
				if errors.Is(err, persistence.ErrKeyNotFound) {
					fmt.Println("no era persisted yet")
					return nil
				}
				return fmt.Errorf("load state: %w", err)
			}
			fmt.Println(snap.Era)
			return nil
		},
	}
	return cmd
}

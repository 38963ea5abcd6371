package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
)

// NewShipsCommand prints the persisted role->ship assignment map
// (spec.md §3's "bidirectional map role_id <-> ship_symbol").
func NewShipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ships",
		Short: "List persisted role-to-ship assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, kv, cs, err := openStore()
			if err != nil {
				return err
			}
			return printAssignments(kv, cs)
		},
	}
	return cmd
}

func printAssignments(kv *persistence.KVStore, cs string) error {
	var assignments map[string]string
	if err := kv.Get(context.Background(), cs+"/ship_assignments", &assignments); err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			fmt.Println("no assignments persisted yet")
			return nil
		}
		return fmt.Errorf("load assignments: %w", err)
	}

	roleIDs := make([]string, 0, len(assignments))
	for roleID := range assignments {
		roleIDs = append(roleIDs, roleID)
	}
	sort.Strings(roleIDs)

	fmt.Printf("%-30s %s\n", "ROLE", "SHIP")
	for _, roleID := range roleIDs {
		fmt.Printf("%-30s %s\n", roleID, assignments[roleID])
	}
	return nil
}

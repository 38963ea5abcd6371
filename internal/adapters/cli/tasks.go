package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
)

// NewTasksCommand prints the Logistic Task Manager's in-progress tasks
// for a system (spec.md §3's in_progress_tasks set).
func NewTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks <system-symbol>",
		Short: "List in-progress logistic tasks for a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, kv, _, err := openStore()
			if err != nil {
				return err
			}

			var snapshot map[string]task.Task
			if err := kv.Get(context.Background(), "task_manager_state/"+args[0], &snapshot); err != nil {
				if errors.Is(err, persistence.ErrKeyNotFound) {
					fmt.Println("no in-progress tasks persisted for this system")
					return nil
				}
				return fmt.Errorf("load task manager state: %w", err)
			}

			ids := make([]string, 0, len(snapshot))
			for id := range snapshot {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			fmt.Printf("%-28s %-18s %-8s %-10s %s\n", "TASK", "KIND", "VALUE", "SHIP", "STARTED")
			for _, id := range ids {
				t := snapshot[id]
				fmt.Printf("%-28s %-18s %-8d %-10s %s\n", t.ID, t.Kind, t.Value, t.AssignedShip, t.StartedAt.Format("2006-01-02T15:04:05"))
			}
			return nil
		},
	}
	return cmd
}

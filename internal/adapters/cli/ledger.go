package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/ledger"
)

// NewLedgerCommand groups the credit ledger's audit-trail subcommands,
// backed by internal/adapters/persistence.GormTransactionRepository
// (spec.md §4.5's standing-reservations accounting has no audit log of
// its own; this is the teacher's complementary transaction history, see
// DESIGN.md).
func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the fleet's transaction history",
	}
	cmd.AddCommand(newLedgerListCommand())
	cmd.AddCommand(newLedgerReportCommand())
	return cmd
}

func newLedgerListCommand() *cobra.Command {
	var (
		limit    int
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore()
			if err != nil {
				return err
			}
			repo := persistence.NewGormTransactionRepository(db)

			opts := ledger.DefaultQueryOptions()
			opts.Limit = limit
			if category != "" {
				cat, err := ledger.ParseCategory(category)
				if err != nil {
					return err
				}
				opts.Category = &cat
			}

			txs, err := repo.Find(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}

			fmt.Printf("%-20s %-14s %-20s %10s %12s %12s\n", "ID", "TYPE", "CATEGORY", "AMOUNT", "BEFORE", "AFTER")
			for _, tx := range txs {
				fmt.Printf("%-20s %-14s %-20s %10d %12d %12d\n",
					tx.ID().String()[:8], tx.TransactionType(), tx.Category(), tx.Amount(), tx.BalanceBefore(), tx.BalanceAfter())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to return")
	cmd.Flags().StringVar(&category, "category", "", "filter by category (e.g. TRADING_REVENUE)")
	return cmd
}

func newLedgerReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize net income/expense by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore()
			if err != nil {
				return err
			}
			repo := persistence.NewGormTransactionRepository(db)

			totals := make(map[ledger.Category]int)
			for _, category := range ledger.AllCategories() {
				cat := category
				count, err := repo.Count(context.Background(), ledger.QueryOptions{Category: &cat})
				if err != nil {
					return fmt.Errorf("count %s: %w", cat, err)
				}
				if count == 0 {
					continue
				}
				txs, err := repo.Find(context.Background(), ledger.QueryOptions{Category: &cat, Limit: count})
				if err != nil {
					return fmt.Errorf("find %s: %w", cat, err)
				}
				sum := 0
				for _, tx := range txs {
					sum += tx.Amount()
				}
				totals[cat] = sum
			}

			fmt.Printf("%-24s %12s\n", "CATEGORY", "NET")
			net := 0
			for _, category := range ledger.AllCategories() {
				fmt.Printf("%-24s %12d\n", category, totals[category])
				net += totals[category]
			}
			fmt.Printf("%-24s %12d\n", "TOTAL", net)
			return nil
		},
	}
	return cmd
}

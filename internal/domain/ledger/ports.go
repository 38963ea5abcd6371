package ledger

import (
	"context"
	"time"
)

// TransactionRepository defines persistence operations for the fleet's
// transaction log (single agent, so there is no per-player scoping).
type TransactionRepository interface {
	// Create persists a new transaction
	Create(ctx context.Context, transaction *Transaction) error

	// FindByID retrieves a transaction by its ID
	FindByID(ctx context.Context, id TransactionID) (*Transaction, error)

	// Find retrieves transactions with optional filtering
	Find(ctx context.Context, opts QueryOptions) ([]*Transaction, error)

	// Count returns the count of transactions matching the criteria
	Count(ctx context.Context, opts QueryOptions) (int, error)
}

// QueryOptions defines filtering and pagination options for transaction queries
type QueryOptions struct {
	// Date range filtering
	StartDate *time.Time
	EndDate   *time.Time

	// Category filtering
	Category *Category

	// Transaction type filtering
	TransactionType *TransactionType

	// Related entity filtering
	RelatedEntityType *string
	RelatedEntityID   *string

	// Pagination
	Limit  int
	Offset int

	// Sorting
	OrderBy string // "timestamp ASC" or "timestamp DESC" (default DESC)
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:   50,
		Offset:  0,
		OrderBy: "timestamp DESC",
	}
}

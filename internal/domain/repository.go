package domain

import "context"

// TransactionRepository defines the interface for reading a raw transaction ledger
type TransactionRepository interface {
	// GetRawTransactions returns every ledger row in source order
	GetRawTransactions(ctx context.Context) ([]RawTransactionRecord, error)

	// Source returns a short identifier of where the rows come from
	Source() string
}

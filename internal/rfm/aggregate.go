// Package rfm computes recency, frequency and monetary metrics per transaction
// description and direction.
package rfm

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/rfm-service/internal/domain"
)

// Aggregate buckets transactions by description and direction. Totals are
// independent of input order; the traceability lists follow it.
func Aggregate(txns []domain.NormalizedTransaction) (domain.Groups, error) {
	groups := make(domain.Groups)

	for _, txn := range txns {
		dir, err := txn.Direction()
		if err != nil {
			return nil, fmt.Errorf("aggregating transactions: %w", err)
		}

		key := domain.GroupKey{Description: txn.Description, Direction: dir}
		acc, ok := groups[key]
		if !ok {
			acc = &domain.GroupAccumulator{TotalAmount: decimal.Zero}
			groups[key] = acc
		}

		accumulate(acc, txn, dir)
	}

	return groups, nil
}

func accumulate(acc *domain.GroupAccumulator, txn domain.NormalizedTransaction, dir domain.Direction) {
	if txn.Date != nil {
		if acc.EarliestDate == nil || txn.Date.Before(*acc.EarliestDate) {
			d := *txn.Date
			acc.EarliestDate = &d
		}
		if acc.LatestDate == nil || txn.Date.After(*acc.LatestDate) {
			d := *txn.Date
			acc.LatestDate = &d
		}
	}

	acc.TransactionCount++
	acc.AmountHistory = append(acc.AmountHistory, acc.TotalAmount)
	acc.TotalAmount = acc.TotalAmount.Add(txn.DecimalAmount(dir))
	acc.TransactionNumbers = append(acc.TransactionNumbers, txn.TransactionNumber)
}

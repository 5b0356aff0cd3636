package rfm

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/rfm-service/internal/domain"
)

// BuildIndex maps every (description, direction) in the RFM dataset to its position
func BuildIndex(records []domain.FlattenedRecord) map[domain.GroupKey]int {
	index := make(map[domain.GroupKey]int, len(records))
	for i, record := range records {
		index[record.Key()] = i
	}
	return index
}

type batchTotal struct {
	amount decimal.Decimal
	count  int
}

// Join combines the long-run RFM averages with the amount and count of each
// description's transactions in batch. Summaries follow the order in which
// groups first appear in batch.
//
// A transaction whose own direction has no RFM record is counted under the
// record of the opposite direction for the same description; this is where
// zero-amount rows of a description end up. Only a description with no RFM
// record at all aborts with a *domain.LookupError.
func Join(batch []domain.NormalizedTransaction, records []domain.FlattenedRecord, index map[domain.GroupKey]int) ([]domain.DescriptionSummary, error) {
	var order []domain.GroupKey
	totals := make(map[domain.GroupKey]*batchTotal)
	positions := make(map[domain.GroupKey]int)

	for _, txn := range batch {
		dir, err := txn.Direction()
		if err != nil {
			return nil, fmt.Errorf("joining batch: %w", err)
		}

		own := domain.GroupKey{Description: txn.Description, Direction: dir}
		key, pos, ok := resolve(own, records, index)
		if !ok {
			return nil, &domain.LookupError{Description: own.Description, Direction: own.Direction}
		}

		total, ok := totals[key]
		if !ok {
			total = &batchTotal{amount: decimal.Zero}
			totals[key] = total
			positions[key] = pos
			order = append(order, key)
		}

		total.amount = total.amount.Add(txn.DecimalAmount(dir))
		total.count++
	}

	summaries := make([]domain.DescriptionSummary, 0, len(order))
	for _, key := range order {
		record := records[positions[key]]
		total := totals[key]

		amount := total.amount.InexactFloat64()
		if math.IsInf(amount, 0) {
			return nil, &domain.ConsistencyError{
				Description: key.Description,
				Direction:   key.Direction,
				Reason:      "amount for the day exceeds the float64 range",
			}
		}

		summaries = append(summaries, domain.DescriptionSummary{
			Description:       key.Description,
			Direction:         key.Direction,
			Recency:           record.Recency,
			MonetaryAvgWeek:   record.MonetaryAvgWeek,
			MonetaryAvgMonth:  record.MonetaryAvgMonth,
			MonetaryAvgYear:   record.MonetaryAvgYear,
			FrequencyAvgWeek:  record.FrequencyAvgWeek,
			FrequencyAvgMonth: record.FrequencyAvgMonth,
			FrequencyAvgYear:  record.FrequencyAvgYear,
			AmountToday:       amount,
			CountToday:        total.count,
		})
	}

	return summaries, nil
}

// resolve finds the record for key, falling back to the opposite direction
func resolve(key domain.GroupKey, records []domain.FlattenedRecord, index map[domain.GroupKey]int) (domain.GroupKey, int, bool) {
	other := domain.GroupKey{Description: key.Description, Direction: domain.Credit}
	if key.Direction == domain.Credit {
		other.Direction = domain.Debit
	}

	for _, candidate := range []domain.GroupKey{key, other} {
		pos, ok := index[candidate]
		if ok && pos >= 0 && pos < len(records) && records[pos].Key() == candidate {
			return candidate, pos, true
		}
	}
	return domain.GroupKey{}, 0, false
}

package rfm

import (
	"sort"
	"time"

	"github.com/tirasundara/rfm-service/internal/domain"
)

// Flatten turns grouped metrics into the RFM dataset. Only groups with at
// least one transaction and a positive total are emitted. A description left
// with no emitted group is returned as a warning.
func Flatten(groups domain.Groups, metrics map[domain.GroupKey]domain.Metric) ([]domain.FlattenedRecord, []domain.Warning) {
	keys := make([]domain.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sortKeys(keys)

	records := make([]domain.FlattenedRecord, 0, len(keys))
	emitted := make(map[string]bool)

	for _, key := range keys {
		acc := groups[key]
		if acc.TransactionCount == 0 || !acc.TotalAmount.IsPositive() {
			continue
		}

		metric, ok := metrics[key]
		if !ok {
			continue
		}

		records = append(records, domain.FlattenedRecord{
			Description:       key.Description,
			Direction:         key.Direction,
			Recency:           metric.Recency,
			MonetaryAvgWeek:   metric.Monetary.AvgWeek,
			MonetaryAvgMonth:  metric.Monetary.AvgMonth,
			MonetaryAvgYear:   metric.Monetary.AvgYear,
			FrequencyAvgWeek:  metric.Frequency.AvgWeek,
			FrequencyAvgMonth: metric.Frequency.AvgMonth,
			FrequencyAvgYear:  metric.Frequency.AvgYear,
			MonetaryTotal:     metric.Monetary.Total,
			FrequencyTotal:    acc.TransactionCount,
		})
		emitted[key.Description] = true
	}

	var warnings []domain.Warning
	warned := make(map[string]bool)
	for _, key := range keys {
		if emitted[key.Description] || warned[key.Description] {
			continue
		}
		warned[key.Description] = true
		warnings = append(warnings, domain.Warning{
			Description: key.Description,
			Message:     "no credit or debit group with a positive total, description omitted from RFM dataset",
		})
	}

	return records, warnings
}

// Compute runs aggregation, metric computation and flattening over one batch
func Compute(txns []domain.NormalizedTransaction, now time.Time) ([]domain.FlattenedRecord, []domain.Warning, error) {
	groups, err := Aggregate(txns)
	if err != nil {
		return nil, nil, err
	}

	metrics, err := ComputeMetrics(groups, now)
	if err != nil {
		return nil, nil, err
	}

	records, warnings := Flatten(groups, metrics)
	return records, warnings, nil
}

// sortKeys orders by description, then credit before debit
func sortKeys(keys []domain.GroupKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Description != keys[j].Description {
			return keys[i].Description < keys[j].Description
		}
		return keys[i].Direction < keys[j].Direction
	})
}

package rfm

import (
	"fmt"
	"math"
	"time"

	"github.com/tirasundara/rfm-service/internal/domain"
)

// Average window lengths in days. These are fixed approximations, not calendar aware.
const (
	Week  = 7.0
	Month = 30.437
	Year  = 365.25
)

// ElapsedDays returns the whole number of days from from to to, rounded down
func ElapsedDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// ComputeMetric derives the RFM metric of one group relative to now.
//
// When the earliest transaction falls on the same day as now the elapsed
// windows are empty and every average is reported as undefined.
func ComputeMetric(key domain.GroupKey, acc domain.GroupAccumulator, now time.Time) (domain.Metric, error) {
	fail := func(reason string) (domain.Metric, error) {
		return domain.Metric{}, &domain.ConsistencyError{
			Description: key.Description,
			Direction:   key.Direction,
			Reason:      reason,
		}
	}

	if acc.TransactionCount == 0 {
		return fail("metric requested for a group with no transactions")
	}
	if acc.EarliestDate == nil || acc.LatestDate == nil {
		return fail("group has no dated transactions")
	}

	elapsed := ElapsedDays(*acc.EarliestDate, now)
	if elapsed < 0 {
		return fail(fmt.Sprintf("earliest transaction %s is after reference time %s",
			acc.EarliestDate.Format(time.DateOnly), now.Format(time.DateOnly)))
	}

	count := float64(acc.TransactionCount)
	total := acc.TotalAmount.InexactFloat64()
	if math.IsInf(total, 0) {
		return fail("monetary total exceeds the float64 range")
	}

	return domain.Metric{
		Recency: ElapsedDays(*acc.LatestDate, now),
		Frequency: domain.Rates{
			AvgWeek:  perWindow(count, elapsed, Week),
			AvgMonth: perWindow(count, elapsed, Month),
			AvgYear:  perWindow(count, elapsed, Year),
			Total:    count,
		},
		Monetary: domain.Rates{
			AvgWeek:  perWindow(total, elapsed, Week),
			AvgMonth: perWindow(total, elapsed, Month),
			AvgYear:  perWindow(total, elapsed, Year),
			Total:    total,
		},
	}, nil
}

// ComputeMetrics computes the metric of every group that has transactions
func ComputeMetrics(groups domain.Groups, now time.Time) (map[domain.GroupKey]domain.Metric, error) {
	metrics := make(map[domain.GroupKey]domain.Metric, len(groups))

	keys := make([]domain.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sortKeys(keys)

	for _, key := range keys {
		acc := groups[key]
		if acc.TransactionCount == 0 {
			continue
		}

		metric, err := ComputeMetric(key, *acc, now)
		if err != nil {
			return nil, fmt.Errorf("computing metrics: %w", err)
		}
		metrics[key] = metric
	}

	return metrics, nil
}

func perWindow(value float64, elapsedDays int, window float64) domain.Average {
	if elapsedDays == 0 {
		return domain.Average{}
	}
	return domain.DefinedAverage(value / (float64(elapsedDays) / window))
}

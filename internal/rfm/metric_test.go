package rfm_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/rfm"
)

func TestComputeMetric_CoffeeDebits(t *testing.T) {
	groups, err := rfm.Aggregate([]domain.NormalizedTransaction{
		debitTxn(t, "1", "2021-01-01", "Coffee", 5.00),
		debitTxn(t, "2", "2021-01-08", "Coffee", 7.00),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	key := domain.GroupKey{Description: "Coffee", Direction: domain.Debit}
	metric, err := rfm.ComputeMetric(key, *groups[key], parseTime(t, "2021-02-01"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if metric.Recency != 24 {
		t.Errorf("Expected recency 24, got %d", metric.Recency)
	}
	if metric.Frequency.Total != 2 {
		t.Errorf("Expected frequency total 2, got %v", metric.Frequency.Total)
	}
	if metric.Monetary.Total != 12 {
		t.Errorf("Expected monetary total 12, got %v", metric.Monetary.Total)
	}

	checks := []struct {
		name string
		got  domain.Average
		want float64
	}{
		{"frequency per week", metric.Frequency.AvgWeek, 2 / (31.0 / 7)},
		{"frequency per month", metric.Frequency.AvgMonth, 2 / (31.0 / 30.437)},
		{"frequency per year", metric.Frequency.AvgYear, 2 / (31.0 / 365.25)},
		{"monetary per week", metric.Monetary.AvgWeek, 12 / (31.0 / 7)},
		{"monetary per month", metric.Monetary.AvgMonth, 12 / (31.0 / 30.437)},
		{"monetary per year", metric.Monetary.AvgYear, 12 / (31.0 / 365.25)},
	}
	for _, c := range checks {
		if !c.got.Defined || !approxEqual(c.got.Value, c.want) {
			t.Errorf("Expected %s to be %.6f, got %+v", c.name, c.want, c.got)
		}
	}

	if metric.Frequency.AvgWeek.Value < 0.4516 || metric.Frequency.AvgWeek.Value > 0.4517 {
		t.Errorf("Expected frequency per week ≈ 0.4516, got %v", metric.Frequency.AvgWeek.Value)
	}
	if metric.Monetary.AvgWeek.Value < 2.7096 || metric.Monetary.AvgWeek.Value > 2.7098 {
		t.Errorf("Expected monetary per week ≈ 2.7097, got %v", metric.Monetary.AvgWeek.Value)
	}
}

func TestComputeMetric_WindowRatio(t *testing.T) {
	groups, err := rfm.Aggregate([]domain.NormalizedTransaction{
		creditTxn(t, "1", "2020-03-15", "Salary", 1500),
		creditTxn(t, "2", "2020-04-15", "Salary", 1500),
		creditTxn(t, "3", "2020-05-15", "Salary", 1550.75),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	key := domain.GroupKey{Description: "Salary", Direction: domain.Credit}
	metric, err := rfm.ComputeMetric(key, *groups[key], parseTime(t, "2021-06-30"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := rfm.Month / rfm.Week
	if ratio := metric.Frequency.AvgWeek.Value / metric.Frequency.AvgMonth.Value; !approxEqual(ratio, want) {
		t.Errorf("Expected frequency week/month ratio %v, got %v", want, ratio)
	}
	if ratio := metric.Monetary.AvgWeek.Value / metric.Monetary.AvgMonth.Value; !approxEqual(ratio, want) {
		t.Errorf("Expected monetary week/month ratio %v, got %v", want, ratio)
	}
	if metric.Recency < 0 {
		t.Errorf("Expected non-negative recency, got %d", metric.Recency)
	}
}

func TestComputeMetric_SameDayIsUndefined(t *testing.T) {
	groups, err := rfm.Aggregate([]domain.NormalizedTransaction{
		debitTxn(t, "1", "2021-02-01", "Lunch", 9.99),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	key := domain.GroupKey{Description: "Lunch", Direction: domain.Debit}
	now := parseTime(t, "2021-02-01").Add(13 * time.Hour)
	metric, err := rfm.ComputeMetric(key, *groups[key], now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if metric.Recency != 0 {
		t.Errorf("Expected recency 0, got %d", metric.Recency)
	}
	for _, avg := range []domain.Average{
		metric.Frequency.AvgWeek, metric.Frequency.AvgMonth, metric.Frequency.AvgYear,
		metric.Monetary.AvgWeek, metric.Monetary.AvgMonth, metric.Monetary.AvgYear,
	} {
		if avg.Defined {
			t.Errorf("Expected undefined average for an empty window, got %v", avg.Value)
		}
	}
	if metric.Monetary.Total != 9.99 || metric.Frequency.Total != 1 {
		t.Errorf("Expected totals to be reported, got %+v", metric)
	}
}

func TestComputeMetric_Errors(t *testing.T) {
	jan1 := parseTime(t, "2021-01-01")
	nov1 := parseTime(t, "2020-11-01")
	key := domain.GroupKey{Description: "Rent", Direction: domain.Debit}

	tests := []struct {
		name string
		acc  domain.GroupAccumulator
	}{
		{
			name: "zero transactions",
			acc:  domain.GroupAccumulator{TotalAmount: decimal.Zero},
		},
		{
			name: "no dated transactions",
			acc:  domain.GroupAccumulator{TransactionCount: 1, TotalAmount: decimal.NewFromFloat(10)},
		},
		{
			name: "earliest transaction after now",
			acc: domain.GroupAccumulator{
				TransactionCount: 1,
				TotalAmount:      decimal.NewFromFloat(10),
				EarliestDate:     &jan1,
				LatestDate:       &jan1,
			},
		},
		{
			name: "total beyond float64 range",
			acc: domain.GroupAccumulator{
				TransactionCount: 2,
				TotalAmount:      decimal.RequireFromString("1e308").Add(decimal.RequireFromString("1e308")),
				EarliestDate:     &nov1,
				LatestDate:       &nov1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rfm.ComputeMetric(key, tt.acc, parseTime(t, "2020-12-01"))

			var consistencyErr *domain.ConsistencyError
			if !errors.As(err, &consistencyErr) {
				t.Fatalf("Expected ConsistencyError, got %v", err)
			}
			if consistencyErr.Description != "Rent" || consistencyErr.Direction != domain.Debit {
				t.Errorf("Expected error for Rent debit, got %+v", consistencyErr)
			}
		})
	}
}

func TestElapsedDays(t *testing.T) {
	from := parseTime(t, "2021-01-01")

	tests := []struct {
		to   string
		want int
	}{
		{"2021-01-01", 0},
		{"2021-01-02", 1},
		{"2021-02-01", 31},
		{"2020-12-31", -1},
	}

	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			if got := rfm.ElapsedDays(from, parseTime(t, tt.to)); got != tt.want {
				t.Errorf("ElapsedDays(2021-01-01, %s) = %d, want %d", tt.to, got, tt.want)
			}
		})
	}

	if got := rfm.ElapsedDays(from, from.Add(47*time.Hour)); got != 1 {
		t.Errorf("Expected 47 hours to round down to 1 day, got %d", got)
	}
}

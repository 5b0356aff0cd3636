package rfm_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/rfm"
)

func TestAggregate(t *testing.T) {
	txns := []domain.NormalizedTransaction{
		debitTxn(t, "1", "2021-01-08", "Coffee", 7.00),
		creditTxn(t, "2", "2021-01-05", "Salary", 1200.00),
		debitTxn(t, "3", "2021-01-01", "Coffee", 5.00),
		creditTxn(t, "4", "2021-01-10", "Coffee", 2.50), // refund
	}

	groups, err := rfm.Aggregate(txns)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(groups) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(groups))
	}

	coffee := groups[domain.GroupKey{Description: "Coffee", Direction: domain.Debit}]
	if coffee == nil {
		t.Fatalf("Expected a Coffee debit group")
	}

	if coffee.TransactionCount != 2 {
		t.Errorf("Expected count 2, got %d", coffee.TransactionCount)
	}
	if !coffee.TotalAmount.Equal(decimal.NewFromFloat(12.00)) {
		t.Errorf("Expected total 12.00, got %s", coffee.TotalAmount)
	}
	if !coffee.EarliestDate.Equal(parseTime(t, "2021-01-01")) {
		t.Errorf("Expected earliest date 2021-01-01, got %v", coffee.EarliestDate)
	}
	if !coffee.LatestDate.Equal(parseTime(t, "2021-01-08")) {
		t.Errorf("Expected latest date 2021-01-08, got %v", coffee.LatestDate)
	}

	// Traceability follows input order
	if len(coffee.TransactionNumbers) != 2 || coffee.TransactionNumbers[0] != "1" || coffee.TransactionNumbers[1] != "3" {
		t.Errorf("Expected transaction numbers [1 3], got %v", coffee.TransactionNumbers)
	}
	if len(coffee.AmountHistory) != 2 || !coffee.AmountHistory[0].IsZero() || !coffee.AmountHistory[1].Equal(decimal.NewFromFloat(7)) {
		t.Errorf("Expected amount history [0 7], got %v", coffee.AmountHistory)
	}

	refund := groups[domain.GroupKey{Description: "Coffee", Direction: domain.Credit}]
	if refund == nil || refund.TransactionCount != 1 || !refund.TotalAmount.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("Expected Coffee credit group with one 2.50 transaction, got %+v", refund)
	}
}

func TestAggregate_UndatedTransactions(t *testing.T) {
	undated := domain.NormalizedTransaction{TransactionNumber: "2", Description: "Cash", DebitAmount: 20}
	txns := []domain.NormalizedTransaction{
		undated,
		debitTxn(t, "1", "2021-03-01", "Cash", 10),
	}

	groups, err := rfm.Aggregate(txns)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cash := groups[domain.GroupKey{Description: "Cash", Direction: domain.Debit}]
	if cash.TransactionCount != 2 {
		t.Errorf("Expected undated transaction to be counted, got count %d", cash.TransactionCount)
	}
	if !cash.EarliestDate.Equal(parseTime(t, "2021-03-01")) || !cash.LatestDate.Equal(parseTime(t, "2021-03-01")) {
		t.Errorf("Expected undated transaction not to bound the date range, got %v..%v", cash.EarliestDate, cash.LatestDate)
	}
}

func TestAggregate_AmbiguousDirection(t *testing.T) {
	txn := debitTxn(t, "7", "2021-01-01", "Transfer", 10)
	txn.CreditAmount = 10

	groups, err := rfm.Aggregate([]domain.NormalizedTransaction{txn})
	if groups != nil {
		t.Errorf("Expected no groups on error, got %d", len(groups))
	}

	var consistencyErr *domain.ConsistencyError
	if !errors.As(err, &consistencyErr) {
		t.Fatalf("Expected ConsistencyError, got %v", err)
	}
	if consistencyErr.TransactionNumber != "7" {
		t.Errorf("Expected transaction 7 in error, got %q", consistencyErr.TransactionNumber)
	}
}

func TestAggregate_TotalsMatchTransactionAmounts(t *testing.T) {
	txns := []domain.NormalizedTransaction{
		debitTxn(t, "1", "2021-01-01", "Groceries", 10.10),
		debitTxn(t, "2", "2021-01-02", "Groceries", 20.20),
		creditTxn(t, "3", "2021-01-03", "Groceries", 0.30),
		debitTxn(t, "4", "2021-01-04", "Rent", 700),
		debitTxn(t, "5", "2021-01-05", "Groceries", 0.10),
	}

	groups, err := rfm.Aggregate(txns)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		dir, _ := txn.Direction()
		want[txn.Description] = want[txn.Description].Add(decimal.NewFromFloat(txn.Amount(dir)))
	}

	got := make(map[string]decimal.Decimal)
	for key, acc := range groups {
		got[key.Description] = got[key.Description].Add(acc.TotalAmount)
	}

	for desc, total := range want {
		if !got[desc].Equal(total) {
			t.Errorf("Expected %s total %s, got %s", desc, total, got[desc])
		}
	}

	groceries := groups[domain.GroupKey{Description: "Groceries", Direction: domain.Debit}]
	if !groceries.TotalAmount.Equal(decimal.RequireFromString("30.4")) {
		t.Errorf("Expected exact decimal total 30.4, got %s", groceries.TotalAmount)
	}
}

func TestAggregate_ExactDecimalAmounts(t *testing.T) {
	first := debitTxn(t, "1", "2021-01-01", "Groceries", 0.1)
	first.DebitExact = decimal.RequireFromString("0.1")
	second := debitTxn(t, "2", "2021-01-02", "Groceries", 0.2)
	second.DebitExact = decimal.RequireFromString("0.2")
	huge := debitTxn(t, "3", "2021-01-03", "Groceries", 1e300)
	huge.DebitExact = decimal.RequireFromString("1e300")

	groups, err := rfm.Aggregate([]domain.NormalizedTransaction{first, second, huge})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := decimal.RequireFromString("1e300").Add(decimal.RequireFromString("0.3"))
	groceries := groups[domain.GroupKey{Description: "Groceries", Direction: domain.Debit}]
	if !groceries.TotalAmount.Equal(want) {
		t.Errorf("Expected total built from the parsed decimals, got %s", groceries.TotalAmount)
	}
}

// Helper function to parse time strings
func parseTime(t *testing.T, timeStr string) time.Time {
	result, err := time.Parse("2006-01-02", timeStr)
	if err != nil {
		t.Fatalf("Failed to parse time string '%s': %v", timeStr, err)
	}

	return result
}

func debitTxn(t *testing.T, number, date, desc string, amount float64) domain.NormalizedTransaction {
	d := parseTime(t, date)
	return domain.NormalizedTransaction{TransactionNumber: number, Date: &d, Description: desc, DebitAmount: amount}
}

func creditTxn(t *testing.T, number, date, desc string, amount float64) domain.NormalizedTransaction {
	d := parseTime(t, date)
	return domain.NormalizedTransaction{TransactionNumber: number, Date: &d, Description: desc, CreditAmount: amount}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the flow direction of a transaction amount
type Direction string

// Transaction directions
const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// CSV header names of a bank ledger export
const (
	FieldTransactionNumber = "Transaction Number"
	FieldTransactionDate   = "Transaction Date"
	FieldTransactionType   = "Transaction Type"
	FieldDescription       = "Transaction Description"
	FieldDebitAmount       = "Debit Amount"
	FieldCreditAmount      = "Credit Amount"
	FieldBalance           = "Balance"
	FieldCategory          = "Category"
	FieldLocationCity      = "Location City"
	FieldLocationCountry   = "Location Country"
)

// RawTransactionRecord is one ledger row exactly as ingested, every field still a string
type RawTransactionRecord struct {
	TransactionNumber string `json:"Transaction Number"`
	TransactionDate   string `json:"Transaction Date"`
	TransactionType   string `json:"Transaction Type"`
	Description       string `json:"Transaction Description"`
	DebitAmount       string `json:"Debit Amount"`
	CreditAmount      string `json:"Credit Amount"`
	Balance           string `json:"Balance"`
	Category          string `json:"Category"`
	LocationCity      string `json:"Location City"`
	LocationCountry   string `json:"Location Country"`
}

// NormalizedTransaction is a typed ledger row. Date is nil when the source row had no date.
// DebitExact and CreditExact hold the amounts as parsed; the float fields are their
// nearest float64 values.
type NormalizedTransaction struct {
	TransactionNumber string     `json:"transactionNumber"`
	Date              *time.Time `json:"date"`
	TransactionType   string     `json:"transactionType"`
	Description       string     `json:"transactionDescription"`
	DebitAmount       float64    `json:"debitAmount"`
	CreditAmount      float64    `json:"creditAmount"`
	Balance           float64    `json:"balance"`
	Category          string     `json:"category"`
	LocationCity      string     `json:"locationCity"`
	LocationCountry   string     `json:"locationCountry"`

	DebitExact  decimal.Decimal `json:"-"`
	CreditExact decimal.Decimal `json:"-"`
}

// Direction returns credit when the credit amount is nonzero and debit otherwise.
// A row carrying both a debit and a credit amount has no single direction.
func (t NormalizedTransaction) Direction() (Direction, error) {
	if t.CreditAmount != 0 && t.DebitAmount != 0 {
		return "", &ConsistencyError{
			Description:       t.Description,
			TransactionNumber: t.TransactionNumber,
			Reason:            "both debit and credit amounts are nonzero",
		}
	}
	if t.CreditAmount != 0 {
		return Credit, nil
	}
	return Debit, nil
}

// Amount returns the amount matching the transaction's direction
func (t NormalizedTransaction) Amount(dir Direction) float64 {
	if dir == Credit {
		return t.CreditAmount
	}
	return t.DebitAmount
}

// DecimalAmount returns the exact amount matching dir. Rows built without the
// parsed decimals fall back to the float amount.
func (t NormalizedTransaction) DecimalAmount(dir Direction) decimal.Decimal {
	exact, approx := t.DebitExact, t.DebitAmount
	if dir == Credit {
		exact, approx = t.CreditExact, t.CreditAmount
	}
	if !exact.IsZero() || approx == 0 {
		return exact
	}
	return decimal.NewFromFloat(approx)
}

// OnDay reports whether the transaction is dated on the same calendar day as day
func (t NormalizedTransaction) OnDay(day time.Time) bool {
	if t.Date == nil {
		return false
	}
	y1, m1, d1 := t.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

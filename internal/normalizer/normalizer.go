package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tirasundara/rfm-service/internal/domain"
)

// DefaultDateLayout parses day/month/year dates with one or two digit day and month
const DefaultDateLayout = "2/1/2006"

var (
	errNegativeAmount = errors.New("amount must not be negative")
	errOutOfRange     = errors.New("number exceeds the float64 range")
)

// Normalizer converts raw ledger rows into typed transactions
type Normalizer struct {
	DateLayout string
}

// New creates a Normalizer for the given date layout
func New(dateLayout string) *Normalizer {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}

	return &Normalizer{
		DateLayout: dateLayout,
	}
}

// Normalize converts every raw record, in order. The first unparseable field
// aborts the whole batch with a *domain.ParseError.
func (n *Normalizer) Normalize(raws []domain.RawTransactionRecord) ([]domain.NormalizedTransaction, error) {
	txns := make([]domain.NormalizedTransaction, 0, len(raws))

	for i, raw := range raws {
		txn, err := n.normalizeRecord(i, raw)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

func (n *Normalizer) normalizeRecord(row int, raw domain.RawTransactionRecord) (domain.NormalizedTransaction, error) {
	fail := func(field, value string, err error) error {
		return &domain.ParseError{
			Row:               row,
			TransactionNumber: raw.TransactionNumber,
			Field:             field,
			Value:             value,
			Err:               err,
		}
	}

	date, err := n.parseDate(raw.TransactionDate)
	if err != nil {
		return domain.NormalizedTransaction{}, fail(domain.FieldTransactionDate, raw.TransactionDate, err)
	}

	debit, debitExact, err := parseAmount(raw.DebitAmount)
	if err != nil {
		return domain.NormalizedTransaction{}, fail(domain.FieldDebitAmount, raw.DebitAmount, err)
	}

	credit, creditExact, err := parseAmount(raw.CreditAmount)
	if err != nil {
		return domain.NormalizedTransaction{}, fail(domain.FieldCreditAmount, raw.CreditAmount, err)
	}

	balance, _, err := parseNumber(raw.Balance)
	if err != nil {
		return domain.NormalizedTransaction{}, fail(domain.FieldBalance, raw.Balance, err)
	}

	return domain.NormalizedTransaction{
		TransactionNumber: raw.TransactionNumber,
		Date:              date,
		TransactionType:   raw.TransactionType,
		Description:       raw.Description,
		DebitAmount:       debit,
		CreditAmount:      credit,
		Balance:           balance,
		Category:          raw.Category,
		LocationCity:      raw.LocationCity,
		LocationCountry:   raw.LocationCountry,
		DebitExact:        debitExact,
		CreditExact:       creditExact,
	}, nil
}

// parseDate returns nil for an empty date string
func (n *Normalizer) parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	date, err := time.Parse(n.DateLayout, s)
	if err != nil {
		return nil, err
	}

	return &date, nil
}

// parseAmount maps an empty string to 0 and rejects negative values
func parseAmount(s string) (float64, decimal.Decimal, error) {
	v, d, err := parseNumber(s)
	if err != nil {
		return 0, decimal.Zero, err
	}
	if d.IsNegative() {
		return 0, decimal.Zero, errNegativeAmount
	}
	return v, d, nil
}

// parseNumber returns the parsed decimal and its float64 value. Values with
// no finite float64 representation are rejected.
func parseNumber(s string) (float64, decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("not a number: %w", err)
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, decimal.Zero, errOutOfRange
	}

	return v, d, nil
}

package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/pkg/fileutil"
)

// CSVTransactionRepository implements the TransactionRepository interface for a CSV ledger export
type CSVTransactionRepository struct {
	FilePath string
}

// NewCSVTransactionRepository creates a new CSVTransactionRepository
func NewCSVTransactionRepository(filePath string) *CSVTransactionRepository {
	return &CSVTransactionRepository{
		FilePath: filePath,
	}
}

// Source returns the ledger file name without its extension
func (r *CSVTransactionRepository) Source() string {
	base := filepath.Base(r.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetRawTransactions reads every ledger row in file order
func (r *CSVTransactionRepository) GetRawTransactions(ctx context.Context) ([]domain.RawTransactionRecord, error) {
	reader := fileutil.NewCSVReader(r.FilePath)

	// Read just the header row
	header, err := reader.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("reading ledger header: %w", err)
	}

	columnMap, err := createHeaderMap(header, requiredLedgerFields, optionalLedgerFields)
	if err != nil {
		return nil, fmt.Errorf("mapping CSV columns: %w", err)
	}

	field := func(row []string, column string) string {
		idx, ok := columnMap[column]
		if !ok {
			return ""
		}
		return row[idx]
	}

	var records []domain.RawTransactionRecord
	var rowProcessorFn = func(_ int, row []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		records = append(records, domain.RawTransactionRecord{
			TransactionNumber: field(row, domain.FieldTransactionNumber),
			TransactionDate:   field(row, domain.FieldTransactionDate),
			TransactionType:   field(row, domain.FieldTransactionType),
			Description:       field(row, domain.FieldDescription),
			DebitAmount:       field(row, domain.FieldDebitAmount),
			CreditAmount:      field(row, domain.FieldCreditAmount),
			Balance:           field(row, domain.FieldBalance),
			Category:          field(row, domain.FieldCategory),
			LocationCity:      field(row, domain.FieldLocationCity),
			LocationCountry:   field(row, domain.FieldLocationCountry),
		})
		return nil
	}

	// Process data row by row
	if err := reader.ReadAndProcessByRow(rowProcessorFn); err != nil {
		return nil, fmt.Errorf("processing ledger rows: %w", err)
	}

	return records, nil
}

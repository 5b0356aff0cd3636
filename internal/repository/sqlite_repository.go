package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tirasundara/rfm-service/internal/domain"

	_ "modernc.org/sqlite"
)

const selectRawTransactions = `
SELECT COALESCE(transaction_number, ''), transaction_date, transaction_type, description,
       debit_amount, credit_amount, balance, category, location_city, location_country
FROM transactions
ORDER BY id`

const upsertRawTransaction = `
INSERT INTO transactions (
    transaction_number, transaction_date, transaction_type, description,
    debit_amount, credit_amount, balance, category, location_city, location_country
) VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(transaction_number) DO UPDATE SET
    transaction_date = excluded.transaction_date,
    transaction_type = excluded.transaction_type,
    description      = excluded.description,
    debit_amount     = excluded.debit_amount,
    credit_amount    = excluded.credit_amount,
    balance          = excluded.balance,
    category         = excluded.category,
    location_city    = excluded.location_city,
    location_country = excluded.location_country`

// SQLiteTransactionRepository implements the TransactionRepository interface on a SQLite ledger store.
// Rows are kept as raw strings so every read goes through normalization again.
type SQLiteTransactionRepository struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteTransactionRepository opens (creating when needed) the database at dbPath and migrates it
func NewSQLiteTransactionRepository(dbPath string) (*SQLiteTransactionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteTransactionRepository{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close releases the database handle
func (r *SQLiteTransactionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Source returns the database file name without its extension
func (r *SQLiteTransactionRepository) Source() string {
	base := filepath.Base(r.dbPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetRawTransactions returns every stored row in import order
func (r *SQLiteTransactionRepository) GetRawTransactions(ctx context.Context) ([]domain.RawTransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRawTransactions)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.RawTransactionRecord
	for rows.Next() {
		var rec domain.RawTransactionRecord
		if err := rows.Scan(
			&rec.TransactionNumber,
			&rec.TransactionDate,
			&rec.TransactionType,
			&rec.Description,
			&rec.DebitAmount,
			&rec.CreditAmount,
			&rec.Balance,
			&rec.Category,
			&rec.LocationCity,
			&rec.LocationCountry,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return records, nil
}

// ImportRaw stores records in one transaction. A row whose transaction number is
// already stored replaces the stored fields and keeps its original position.
// Rows without a transaction number are always appended.
func (r *SQLiteTransactionRepository) ImportRaw(ctx context.Context, records []domain.RawTransactionRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRawTransaction)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			strings.TrimSpace(rec.TransactionNumber),
			rec.TransactionDate,
			rec.TransactionType,
			rec.Description,
			rec.DebitAmount,
			rec.CreditAmount,
			rec.Balance,
			rec.Category,
			rec.LocationCity,
			rec.LocationCountry,
		); err != nil {
			return 0, fmt.Errorf("import row %d (transaction %q): %w", i+1, rec.TransactionNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	return len(records), nil
}

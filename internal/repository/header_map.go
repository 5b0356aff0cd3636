package repository

import (
	"fmt"
	"strings"

	"github.com/tirasundara/rfm-service/internal/domain"
)

var requiredLedgerFields = []string{
	domain.FieldTransactionNumber,
	domain.FieldTransactionDate,
	domain.FieldDescription,
	domain.FieldDebitAmount,
	domain.FieldCreditAmount,
}

var optionalLedgerFields = []string{
	domain.FieldTransactionType,
	domain.FieldBalance,
	domain.FieldCategory,
	domain.FieldLocationCity,
	domain.FieldLocationCountry,
}

// createHeaderMap maps column names to their indices, matching case-insensitively.
// Every required column must be present; optional columns are mapped when found.
func createHeaderMap(header []string, required, optional []string) (map[string]int, error) {
	columnMap := make(map[string]int)

	var missing []string
	for _, column := range required {
		idx := indexOfColumn(header, column)
		if idx < 0 {
			missing = append(missing, column)
			continue
		}
		columnMap[column] = idx
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required field(s) '%s' not found in CSV header", strings.Join(missing, "', '"))
	}

	for _, column := range optional {
		if idx := indexOfColumn(header, column); idx >= 0 {
			columnMap[column] = idx
		}
	}

	return columnMap, nil
}

func indexOfColumn(header []string, column string) int {
	for i, field := range header {
		if strings.EqualFold(column, strings.TrimSpace(field)) {
			return i
		}
	}
	return -1
}

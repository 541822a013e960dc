package query

import (
	"database/sql"

	"github.com/nexuscrm/registry/internal/domain/models"
)

// ScanRowsToRecords reads every remaining row into a Record keyed by column name.
// Byte slices, which MySQL returns for text columns, become strings.
func ScanRowsToRecords(rows *sql.Rows) ([]models.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []models.Record{}
	dest := make([]interface{}, len(columns))
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rec := make(models.Record, len(columns))
		for i, name := range columns {
			if raw, ok := cells[i].([]byte); ok {
				rec[name] = string(raw)
				continue
			}
			rec[name] = cells[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/infrastructure/persistence"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/errors"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
)

// importRetries bounds attempts when the import transaction hits lock contention
const importRetries = 3

// ImportResult summarizes a CSV import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService bulk-loads model records from CSV
type ImportService struct {
	metadata *MetadataService
	records  *persistence.RecordRepository
	tx       *persistence.TransactionManager
	log      *zap.Logger
}

// NewImportService creates an ImportService
func NewImportService(metadata *MetadataService, records *persistence.RecordRepository, tx *persistence.TransactionManager, log *zap.Logger) *ImportService {
	return &ImportService{metadata: metadata, records: records, tx: tx, log: log}
}

// Import reads a CSV whose header names fields by API name or label.
// Unknown columns and ID are ignored. Rows that fail conversion are skipped
// and reported; the remaining rows are inserted in a single transaction.
func (s *ImportService) Import(ctx context.Context, model string, r io.Reader) (*ImportResult, error) {
	schema, err := s.metadata.GetSchemaOrError(model)
	if err != nil {
		return nil, err
	}
	if schema.IsSystem {
		return nil, errors.NewValidationError("model", fmt.Sprintf("%s records cannot be imported", schema.APIName))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewValidationError("file", "empty CSV")
	}
	if err != nil {
		return nil, errors.NewValidationError("file", err.Error())
	}
	columns := importColumns(schema, header)
	if len(columns) == 0 {
		return nil, errors.NewValidationError("file", "no column matches a field of "+schema.APIName)
	}

	result := &ImportResult{}
	var pending []models.Record
	line := 1
	for {
		values, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.NewValidationError("file", err.Error())
		}

		rec, err := s.convertRow(ctx, columns, values)
		if errors.IsInternal(err) {
			return nil, err
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		pending = append(pending, rec)
	}

	if len(pending) == 0 {
		return result, nil
	}

	err = s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		for _, rec := range pending {
			if _, err := s.records.Insert(ctx, tx, schema.TableName, rec); err != nil {
				return err
			}
		}
		return nil
	}, importRetries)
	if err != nil {
		return nil, errors.NewInternalError("importing records", err)
	}
	result.Imported = len(pending)

	s.log.Info("records imported",
		zap.String("model", schema.APIName),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// importColumn binds a CSV column index to a field
type importColumn struct {
	index int
	field *models.FieldMetadata
}

func importColumns(schema *models.ObjectMetadata, header []string) []importColumn {
	var columns []importColumn
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if strings.EqualFold(name, constants.FieldID) {
			continue
		}
		f := schema.GetField(name)
		if f == nil {
			f = schema.GetRelationship(name)
		}
		if f == nil {
			for j := range schema.Fields {
				if strings.EqualFold(schema.Fields[j].Label, name) {
					f = &schema.Fields[j]
					break
				}
			}
		}
		if f != nil {
			columns = append(columns, importColumn{index: i, field: f})
		}
	}
	return columns
}

// convertRow coerces a CSV line and checks that referenced records exist.
// Storage failures come back as internal errors; anything else is a bad row.
// Lookups are checked here so no query runs while the import transaction is open.
func (s *ImportService) convertRow(ctx context.Context, columns []importColumn, values []string) (models.Record, error) {
	registry := fieldtypes.GetRegistry()
	rec := make(models.Record, len(columns))
	for _, col := range columns {
		var raw interface{}
		if col.index < len(values) {
			raw = values[col.index]
		}
		value, err := registry.Coerce(col.field.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.field.APIName, err)
		}

		if col.field.IsLookup() && value != nil {
			target := s.metadata.GetSchema(col.field.ReferenceTo)
			if target == nil {
				return nil, fmt.Errorf("%s: unknown model %s", col.field.APIName, col.field.ReferenceTo)
			}
			ok, err := s.records.Exists(ctx, target.TableName, value.(int64))
			if err != nil {
				return nil, errors.NewInternalError("checking referenced records", err)
			}
			if !ok {
				return nil, fmt.Errorf("%s: %s %d does not exist", col.field.APIName, target.Label, value)
			}
		}
		rec[col.field.APIName] = value
	}
	return rec, nil
}

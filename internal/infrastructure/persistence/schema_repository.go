package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
	"github.com/nexuscrm/registry/pkg/query"
)

// SchemaRepository creates model tables
type SchemaRepository struct {
	db     Executor
	driver string
}

// NewSchemaRepository creates a SchemaRepository for the given dialect
func NewSchemaRepository(db Executor, driver string) *SchemaRepository {
	return &SchemaRepository{db: db, driver: driver}
}

// EnsureTable creates the model's table and lookup indexes when missing
func (r *SchemaRepository) EnsureTable(ctx context.Context, obj *models.ObjectMetadata) error {
	stmts, err := BuildTableDDL(obj, r.driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating table %s: %w", obj.TableName, err)
		}
	}
	return nil
}

// BuildTableDDL returns the statements creating obj's table in the given dialect.
// MySQL gets inline keys; SQLite gets separate CREATE INDEX statements.
func BuildTableDDL(obj *models.ObjectMetadata, driver string) ([]string, error) {
	if !query.IsValidIdentifier(obj.TableName) {
		return nil, fmt.Errorf("invalid table name %q", obj.TableName)
	}

	registry := fieldtypes.GetRegistry()
	table := query.QuoteIdent(obj.TableName)

	var cols []string
	switch driver {
	case constants.DriverMySQL:
		cols = append(cols, "`ID` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	case constants.DriverSQLite:
		cols = append(cols, "`ID` INTEGER PRIMARY KEY AUTOINCREMENT")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	var keys []string
	var indexes []string
	for _, f := range obj.Fields {
		if f.APIName == constants.FieldID {
			continue
		}
		if !query.IsValidIdentifier(f.APIName) {
			return nil, fmt.Errorf("invalid field name %q on %s", f.APIName, obj.APIName)
		}
		sqlType := registry.GetSQLType(f.Type, driver)
		if sqlType == "" {
			return nil, fmt.Errorf("field %s.%s has unknown type %q", obj.APIName, f.APIName, f.Type)
		}

		col := query.QuoteIdent(f.APIName)
		def := col + " " + sqlType + " NULL"
		if f.Unique {
			def += " UNIQUE"
		}
		cols = append(cols, def)

		if f.IsLookup() {
			idx := query.QuoteIdent(fmt.Sprintf("idx_%s_%s", obj.TableName, f.APIName))
			if driver == constants.DriverMySQL {
				keys = append(keys, fmt.Sprintf("KEY %s (%s)", idx, col))
			} else {
				indexes = append(indexes, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx, table, col))
			}
		}
	}

	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  ", table))
	ddl.WriteString(strings.Join(append(cols, keys...), ",\n  "))
	ddl.WriteString("\n)")
	if driver == constants.DriverMySQL {
		ddl.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	}

	return append([]string{ddl.String()}, indexes...), nil
}

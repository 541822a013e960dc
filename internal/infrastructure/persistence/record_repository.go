package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/query"
)

// Executor is satisfied by *sql.DB, *sql.Tx and the database connection wrapper
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// RecordRepository runs built queries against any model table
type RecordRepository struct {
	db Executor
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db Executor) *RecordRepository {
	return &RecordRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *RecordRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// Find runs a select builder and returns every row
func (r *RecordRepository) Find(ctx context.Context, b *query.Builder) ([]models.Record, error) {
	q := b.Build()

	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", b.Table(), err)
	}
	defer rows.Close()

	records, err := query.ScanRowsToRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", b.Table(), err)
	}
	return records, nil
}

// FindOne runs a select builder limited to one row; nil when nothing matches
func (r *RecordRepository) FindOne(ctx context.Context, b *query.Builder) (models.Record, error) {
	records, err := r.Find(ctx, b.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Count returns the number of rows a select builder matches
func (r *RecordRepository) Count(ctx context.Context, b *query.Builder) (int64, error) {
	q := b.Count().Build()

	var total int64
	if err := r.db.QueryRowContext(ctx, q.SQL, q.Params...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting %s: %w", b.Table(), err)
	}
	return total, nil
}

// FindByID returns a record by primary key; nil when absent
func (r *RecordRepository) FindByID(ctx context.Context, tableName string, id int64) (models.Record, error) {
	b := query.From(tableName).
		Select([]string{"*"}).
		Where(query.Column(tableName, constants.FieldID)+" = ?", id)
	return r.FindOne(ctx, b)
}

// Exists checks if a record exists by ID
func (r *RecordRepository) Exists(ctx context.Context, tableName string, id int64) (bool, error) {
	b := query.From(tableName).
		Where(query.Column(tableName, constants.FieldID)+" = ?", id)
	n, err := r.Count(ctx, b)
	return n > 0, err
}

// Insert executes an INSERT statement and returns the generated ID
func (r *RecordRepository) Insert(ctx context.Context, tx *sql.Tx, tableName string, record models.Record) (int64, error) {
	q := query.Insert(tableName, record)

	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", tableName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading id of %s insert: %w", tableName, err)
	}
	return id, nil
}

// Update executes an UPDATE statement
func (r *RecordRepository) Update(ctx context.Context, tx *sql.Tx, tableName string, id int64, updates models.Record) error {
	q := query.Update(tableName, updates, query.QuoteIdent(constants.FieldID)+" = ?", id)

	if _, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...); err != nil {
		return fmt.Errorf("updating %s %d: %w", tableName, id, err)
	}
	return nil
}

// Delete executes a DELETE statement
func (r *RecordRepository) Delete(ctx context.Context, tx *sql.Tx, tableName string, id int64) error {
	q := query.Delete(tableName, query.QuoteIdent(constants.FieldID)+" = ?", id)

	if _, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...); err != nil {
		return fmt.Errorf("deleting %s %d: %w", tableName, id, err)
	}
	return nil
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// TxBeginner starts database transactions
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TransactionManager runs functions inside transactions, retrying on lock contention
type TransactionManager struct {
	db      TxBeginner
	backoff time.Duration
}

// NewTransactionManager creates a new TransactionManager
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db, backoff: 100 * time.Millisecond}
}

// WithTransaction executes fn within a transaction.
// The transaction is rolled back if fn returns an error or panics, and
// committed otherwise.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithRetry is WithTransaction retried up to maxRetries times, with
// exponential backoff, while the failure is lock contention.
// Other errors are returned immediately.
func (tm *TransactionManager) WithRetry(ctx context.Context, fn func(tx *sql.Tx) error, maxRetries int) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := tm.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}

		if attempt < maxRetries-1 {
			select {
			case <-time.After(tm.backoff * time.Duration(1<<uint(attempt))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxRetries, lastErr)
}

// isRetryable reports lock contention:
// MySQL 1213 (deadlock) and 1205 (lock wait timeout), SQLite SQLITE_BUSY.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") || strings.Contains(msg, "database is locked")
}

// IsUniqueViolation reports a duplicate key: MySQL 1062 or a SQLite UNIQUE
// constraint failure
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

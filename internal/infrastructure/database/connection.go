package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nexuscrm/registry/internal/config"
	"github.com/nexuscrm/registry/pkg/constants"
)

// Connection wraps the pooled database handle together with its dialect.
// sql.DB is already safe for concurrent use; no extra locking is added.
type Connection struct {
	db     *sql.DB
	driver string
}

var tlsOnce sync.Once // TLS config is registered once per process

// NewConnection wraps an existing handle
func NewConnection(db *sql.DB, driver string) *Connection {
	return &Connection{db: db, driver: driver}
}

// Open connects to the configured database and verifies it with a ping
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Connection, error) {
	dsn, err := DataSourceName(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch cfg.Driver {
	case constants.DriverSQLite:
		// Every connection to an in-memory database sees its own empty database
		if isMemoryDSN(dsn) {
			db.SetMaxOpenConns(1)
		}
	case constants.DriverMySQL:
		// MaxIdleConns matches MaxOpenConns to avoid reconnect churn under load
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(50)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(3 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected", zap.String("driver", cfg.Driver))
	return &Connection{db: db, driver: cfg.Driver}, nil
}

// DataSourceName returns the driver DSN: the configured one, or for MySQL
// one assembled from host, port, user, password and name.
func DataSourceName(cfg config.DatabaseConfig, log *zap.Logger) (string, error) {
	switch cfg.Driver {
	case constants.DriverSQLite:
		if cfg.DSN == "" {
			return constants.DefaultSQLiteDSN, nil
		}
		return cfg.DSN, nil

	case constants.DriverMySQL:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}

		// Remote hosts (e.g. TiDB Cloud) require TLS with a server name
		if cfg.Host != "" && cfg.Host != "127.0.0.1" && cfg.Host != "localhost" {
			tlsOnce.Do(func() {
				if err := mysql.RegisterTLSConfig("registry", &tls.Config{
					MinVersion: tls.VersionTLS12,
					ServerName: cfg.Host,
				}); err != nil {
					log.Warn("failed to register TLS config", zap.Error(err))
				}
			})
			mc.TLSConfig = "registry"
		}
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// QueryContext executes a SELECT query with context
func (c *Connection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a SELECT query with context that returns at most one row
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes an INSERT, UPDATE, DELETE or DDL statement with context
func (c *Connection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction with context
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, opts)
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Driver returns the dialect name (mysql or sqlite)
func (c *Connection) Driver() string {
	return c.driver
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}

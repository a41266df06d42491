package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig configures the run journal connection pool.
type MySQLConfig struct {
	// DSN as accepted by go-sql-driver, e.g. "user:pass@tcp(host:3306)/scoreboard".
	DSN                string        `yaml:"dsn"`
	MaxOpenConnections int           `yaml:"maxOpenConnections"`
	MaxIdleConnections int           `yaml:"maxIdleConnections"`
	ConnMaxLifetime    time.Duration `yaml:"connMaxLifetime"`
	PingTimeout        time.Duration `yaml:"pingTimeout"`
}

func (c MySQLConfig) withDefaults() MySQLConfig {
	if c.MaxOpenConnections == 0 {
		c.MaxOpenConnections = 10
	}
	if c.MaxIdleConnections == 0 {
		c.MaxIdleConnections = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}
	return c
}

// connector parses the DSN and forces the options the journal relies on.
func (c MySQLConfig) connector() (driver.Connector, error) {
	dsn, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn failed: %w", err)
	}
	dsn.ParseTime = true
	dsn.MultiStatements = false
	if dsn.Timeout == 0 {
		dsn.Timeout = c.PingTimeout
	}
	return mysql.NewConnector(dsn)
}

// MySQL is a pooled Database.
type MySQL struct {
	db *sql.DB
}

func NewMySQLWithConfig(config *MySQLConfig) (*MySQL, error) {
	if config == nil || config.DSN == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}
	cfg := config.withDefaults()
	connector, err := cfg.connector()
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql failed: %w", err)
	}
	return &MySQL{db: db}, nil
}

func (m *MySQL) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (m *MySQL) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	result, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

func (m *MySQL) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQL) Close() error {
	return m.db.Close()
}

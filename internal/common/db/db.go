package db

import "context"

// Querier is the statement surface repositories depend on.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Database is a Querier with a lifecycle.
type Database interface {
	Querier
	Ping(ctx context.Context) error
	Close() error
}

// Rows is an iterator over query results. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Result summarizes an executed statement. sql.Result satisfies it.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

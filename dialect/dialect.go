package dialect

import "context"

// Postgres is the only dialect the storage layer speaks.
const Postgres = "postgres"

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows.
	// v is nil or a *sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows. v is a *sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Session is an ExecQuerier pinned to one storage connection. Every request
// owns exactly one session and closes it when done.
type Session interface {
	ExecQuerier
	Close() error
}

// Driver is a connection pool handing out sessions. Statements run on the
// driver itself use any pooled connection.
type Driver interface {
	ExecQuerier
	// Session pins one connection until the session is closed.
	Session(ctx context.Context) (Session, error)
	// Close closes the pool.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

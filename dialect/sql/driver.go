package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/syssam/postgraph/dialect"
)

// Driver is a dialect.Driver over a *sql.DB.
type Driver struct {
	Conn
	db *sql.DB
}

// Open opens a pool with the registered database/sql driver. PostgreSQL
// is served by github.com/lib/pq, registered as "postgres".
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(db), nil
}

// OpenDB wraps an opened pool.
func OpenDB(db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db}, db: db}
}

// DB returns the underlying pool.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect implements dialect.Driver.
func (*Driver) Dialect() string { return dialect.Postgres }

// Close closes the pool.
func (d *Driver) Close() error { return d.db.Close() }

// Session pins one pooled connection. The caller must close it to return
// the connection to the pool.
func (d *Driver) Session(ctx context.Context) (dialect.Session, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: session: %w", err)
	}
	return &Session{Conn: Conn{conn}, conn: conn}, nil
}

// Session implements dialect.Session over a *sql.Conn.
type Session struct {
	Conn
	conn *sql.Conn
}

// Close returns the connection to the pool.
func (s *Session) Close() error { return s.conn.Close() }

type ctxVarsKey struct{}

type sessionVar struct{ name, value string }

// WithVar returns a context whose statements run with the session variable
// set. The variable is reset once the statement is done.
func WithVar(ctx context.Context, name, value string) context.Context {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	vars = append(vars[:len(vars):len(vars)], sessionVar{name, value})
	return context.WithValue(ctx, ctxVarsKey{}, vars)
}

// VarFromContext returns the first value set for name in ctx.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	for _, v := range vars {
		if v.name == name {
			return v.value, true
		}
	}
	return "", false
}

// Setting names are plain or dotted identifiers such as statement_timeout
// or postgraph.role.
var settingName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func validSettingName(s string) bool {
	return len(s) <= 128 && settingName.MatchString(s)
}

// ExecQuerier is the subset of *sql.DB and *sql.Conn a Conn runs on.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier over a database/sql ExecQuerier.
type Conn struct {
	ExecQuerier
}

// Exec implements dialect.ExecQuerier.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, done, err := c.withVars(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	defer func() {
		if derr := done(); derr != nil {
			rerr = errors.Join(rerr, derr)
		}
	}()
	switch v := v.(type) {
	case nil:
		if _, err := ex.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := ex.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements dialect.ExecQuerier. The session variables stay set
// until the rows are closed.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, done, err := c.withVars(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if derr := done(); derr != nil {
			err = errors.Join(err, derr)
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rowsWithCloser{rows, done}}
	return nil
}

func nop() error { return nil }

// withVars sets the context's session variables on a pinned connection and
// returns a function resetting them. On a pool, a connection is pinned for
// the statement and released by the returned function.
func (c Conn) withVars(ctx context.Context) (ExecQuerier, func() error, error) {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	if len(vars) == 0 {
		return c.ExecQuerier, nop, nil
	}
	var (
		ex      ExecQuerier
		release = nop
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Conn:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, release = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	var (
		reset []string
		seen  = make(map[string]bool, len(vars))
	)
	for _, v := range vars {
		if !validSettingName(v.name) {
			return nil, nil, errors.Join(fmt.Errorf("invalid session variable name: %q", v.name), release())
		}
		if !seen[v.name] {
			reset = append(reset, "RESET "+v.name)
			seen[v.name] = true
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("SET %s = %s", v.name, pq.QuoteLiteral(v.value))); err != nil {
			return nil, nil, errors.Join(err, release())
		}
	}
	done := func() error {
		// Reset even when the request context is already canceled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, q := range reset {
			if _, err := ex.ExecContext(ctx, q); err != nil {
				return errors.Join(err, release())
			}
		}
		return release()
	}
	return ex, done, nil
}

var (
	_ dialect.Driver  = (*Driver)(nil)
	_ dialect.Session = (*Session)(nil)
)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
)

// ColumnScanner is the subset of *sql.Rows used for scanning.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// rowsWithCloser runs closer after the rows are closed.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}

// Package dialect defines the storage driver abstraction.
//
// Resolvers never talk to database/sql directly. Each request carries a
// dialect.ExecQuerier, the Session the HTTP handler pinned for it:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// The dialect/sql sub-package implements the interfaces over database/sql and
// provides the parameterized SQL fragment builder used by the postgres package.
package dialect

// Package sql implements the dialect interfaces over database/sql.
//
// # Fragments
//
// SQL text is never assembled from values. A Fragment holds SQL text with
// placeholders and the values bound to them; fragments compose and are
// numbered ($1, $2, ...) when built:
//
//	q := sql.Concat(
//	    sql.Raw("select to_json(__local__) from "),
//	    sql.Ident("forum", "person"),
//	    sql.Raw(" as __local__ where "),
//	    sql.Ident("__local__", "id"),
//	    sql.Raw(" = "),
//	    sql.Value(1),
//	)
//	query, args := q.Build()
//	// select to_json(__local__) from "forum"."person" as __local__ where "__local__"."id" = $1
//
// # Drivers
//
// Driver wraps a *sql.DB. Session pins one pooled connection for the
// lifetime of a request. StatsDriver and DebugDriver decorate any
// dialect.Driver, and the sessions it hands out, with slow query detection
// and statement logging through log/slog. They stack.
package sql

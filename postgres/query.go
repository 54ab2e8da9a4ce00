package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
)

// localAlias is the alias every selected relation is given.
const localAlias = "__local__"

var local = sql.Ident(localAlias)

// queryJSON runs q and decodes the single json column of every row.
func queryJSON(ctx context.Context, q sql.Fragment) ([]any, error) {
	var values []any
	err := query(ctx, q, func(rows *sql.Rows) error {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return err
		}
		v, err := decodeJSON(b)
		if err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	return values, err
}

// queryInt runs q and scans a single integer.
func queryInt(ctx context.Context, q sql.Fragment) (int, error) {
	var (
		n     int
		found bool
	)
	err := query(ctx, q, func(rows *sql.Rows) error {
		found = true
		return rows.Scan(&n)
	})
	if err == nil && !found {
		err = postgraph.NewInvariantError("query returned no rows: %s", q)
	}
	return n, err
}

// queryBool runs q and scans a single boolean.
func queryBool(ctx context.Context, q sql.Fragment) (bool, error) {
	var b bool
	err := query(ctx, q, func(rows *sql.Rows) error {
		return rows.Scan(&b)
	})
	return b, err
}

func query(ctx context.Context, q sql.Fragment, scan func(*sql.Rows) error) error {
	rc, err := inventory.FromContext(ctx)
	if err != nil {
		return err
	}
	text, args := q.Build()
	rc.Logger.DebugContext(ctx, "postgres query", "query", text, "args", args)
	var rows sql.Rows
	if err := rc.Querier.Query(ctx, text, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func decodeJSON(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("postgres: decode row: %w", err)
	}
	return v, nil
}

// wrapError attaches the entity and operation to a storage error.
// Constraint violations are reported as constraint errors.
func wrapError(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if sql.IsConstraintError(err) {
		msg := entity
		if name := sql.ConstraintName(err); name != "" {
			msg += ": " + name
		}
		err = postgraph.NewConstraintError(msg, err)
	}
	return postgraph.NewQueryError(entity, op, err)
}

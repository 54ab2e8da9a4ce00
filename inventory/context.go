package inventory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect"
)

// Context is the per-request state storage capabilities run with.
type Context struct {
	ID      uuid.UUID
	Querier dialect.ExecQuerier
	Logger  *slog.Logger
}

// NewContext returns a request context with a fresh id. A nil logger uses
// slog.Default.
func NewContext(q dialect.ExecQuerier, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Context{ID: id, Querier: q, Logger: logger.With("request_id", id.String())}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying c.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the request context stored in ctx. A missing
// request context is an invariant violation of the caller.
func FromContext(ctx context.Context) (*Context, error) {
	c, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || c == nil {
		return nil, postgraph.NewInvariantError("no request context")
	}
	if c.Querier == nil {
		return nil, postgraph.NewInvariantError("request context %s has no querier", c.ID)
	}
	return c, nil
}
